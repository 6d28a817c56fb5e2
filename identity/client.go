package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"
)

// DefaultURL is the identity service's best-match endpoint.
const DefaultURL = "https://dash.harvard.edu/getBestMatch"

// ErrStatus is returned when the service answers with a non-2xx status.
var ErrStatus = errors.New("identity service returned an error status")

// Result is the decoded response to one lookup.
type Result struct {
	URL        string
	Candidates []Candidate
}

// Lookuper performs identity lookups.
type Lookuper interface {
	Lookup(ctx context.Context, q Query) (*Result, error)
}

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	BaseURL string

	// Timeout bounds each request; zero leaves requests unbounded
	Timeout time.Duration

	// RequestsPerSecond paces lookups; zero disables pacing
	RequestsPerSecond float64
	Burst             int
}

// Client queries the identity service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultURL
	}

	c := &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

type response struct {
	Choices []Candidate `json:"choices"`
}

// Lookup issues one GET for q and decodes the candidate list. Transport
// failures and error statuses are returned, never reported as no match.
func (c *Client) Lookup(ctx context.Context, q Query) (*Result, error) {
	lookupURL, err := q.URL(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("building lookup URL: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", lookupURL, err)
	}
	defer resp.Body.Close()

	slog.Debug("identity lookup", "url", lookupURL, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", ErrStatus, resp.StatusCode, lookupURL)
	}

	body := io.Reader(resp.Body)
	if isLatin1(resp.Header.Get("Content-Type")) {
		body = charmap.ISO8859_1.NewDecoder().Reader(body)
	}

	var decoded response
	if err := json.NewDecoder(body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", lookupURL, err)
	}

	return &Result{URL: lookupURL, Candidates: decoded.Choices}, nil
}

// isLatin1 reports whether a Content-Type header declares an ISO-8859-1 body.
func isLatin1(contentType string) bool {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch strings.ToLower(params["charset"]) {
	case "iso-8859-1", "latin1", "latin-1":
		return true
	}
	return false
}
