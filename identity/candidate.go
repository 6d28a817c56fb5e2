package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DefaultThreshold is the minimum confidence a candidate needs to be considered.
const DefaultThreshold = 0.34

// Candidate is one identity returned by the service.
type Candidate struct {
	Authority  string
	Confidence float64
	Schools    []string
	Label      string
}

// UnmarshalJSON accepts confidence as a number or a numeric string and
// tolerates a malformed schools field.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Authority  json.RawMessage `json:"authority"`
		Confidence json.RawMessage `json:"confidence"`
		Schools    json.RawMessage `json:"schools"`
		Label      json.RawMessage `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Authority = scalarString(raw.Authority)
	c.Label = scalarString(raw.Label)

	confidence, err := parseConfidence(raw.Confidence)
	if err != nil {
		return err
	}
	c.Confidence = confidence

	c.Schools = nil
	if len(raw.Schools) > 0 && !bytes.Equal(raw.Schools, []byte("null")) {
		var schools []string
		if err := json.Unmarshal(raw.Schools, &schools); err != nil {
			slog.Debug("ignoring malformed schools", "authority", c.Authority, "schools", string(raw.Schools))
		} else {
			c.Schools = schools
		}
	}
	return nil
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("candidate has no confidence")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid confidence %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid confidence %q: %w", s, err)
	}
	return f, nil
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// BestCandidate picks the highest-confidence candidate at or above threshold.
// A tie for the top confidence is no match.
func BestCandidate(candidates []Candidate, threshold float64) (Candidate, bool) {
	var (
		best  Candidate
		found bool
		tied  bool
	)
	for _, c := range candidates {
		if c.Confidence < threshold {
			continue
		}
		switch {
		case !found || c.Confidence > best.Confidence:
			best = c
			found = true
			tied = false
		case c.Confidence == best.Confidence:
			tied = true
		}
	}
	if !found || tied {
		return Candidate{}, false
	}
	return best, true
}
