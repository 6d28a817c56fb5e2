// Package report accumulates the per-batch authority audit and counters.
//
// Both accumulators are owned by a batch run and passed explicitly to the
// components that write to them. They are safe for concurrent use.
package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// NoMatchLabel is reported when no candidate was selected.
const NoMatchLabel = "NO MATCH"

// AuthorityQuery records one identity lookup for an institution-matched
// author. Records are never modified after they are added.
type AuthorityQuery struct {
	ExternalID      string
	Title           string
	AuthorFirst     string
	AuthorLast      string
	AffiliationText string
	LookupURL       string
	CandidateCount  int
	Matched         bool
	BestLabel       string
	BestConfidence  float64
	BestAuthority   string

	// AuthorIndex is the 1-based position among the article's matched authors
	AuthorIndex    int
	MatchedAuthors int
	AllAuthors     int
}

// Audit is the append-only list of authority lookups for one batch run.
type Audit struct {
	mu      sync.Mutex
	batch   string
	runID   string
	records []AuthorityQuery
}

// NewAudit creates an empty audit for the named batch.
func NewAudit(batch string) *Audit {
	return &Audit{
		batch: batch,
		runID: uuid.NewString(),
	}
}

// Batch returns the batch name.
func (a *Audit) Batch() string {
	return a.batch
}

// RunID returns the unique identifier of this run.
func (a *Audit) RunID() string {
	return a.runID
}

// Add appends a record.
func (a *Audit) Add(q AuthorityQuery) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, q)
}

// Len returns the number of records.
func (a *Audit) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Records returns a copy of the records in insertion order.
func (a *Audit) Records() []AuthorityQuery {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuthorityQuery, len(a.records))
	copy(out, a.records)
	return out
}

// WriteOptions controls audit serialization.
type WriteOptions struct {
	// Timestamp is stamped on the document; zero means now
	Timestamp time.Time

	// Handles maps external IDs to archive handles for items already loaded
	Handles map[string]string

	// Pretty enables multi-line output
	Pretty bool
}

// Document builds the report document consumed by the reporting view.
func (a *Audit) Document(opts WriteOptions) (*structpb.Struct, error) {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	rows := make([]any, 0, a.Len())
	for _, q := range a.Records() {
		label, confidence := NoMatchLabel, 0.0
		if q.Matched {
			label, confidence = q.BestLabel, q.BestConfidence
		}
		rows = append(rows, map[string]any{
			"externalId":      q.ExternalID,
			"handle":          opts.Handles[q.ExternalID],
			"title":           q.Title,
			"authorFirst":     q.AuthorFirst,
			"authorLast":      q.AuthorLast,
			"affiliationText": q.AffiliationText,
			"lookupUrl":       q.LookupURL,
			"candidateCount":  q.CandidateCount,
			"bestLabel":       label,
			"bestConfidence":  confidence,
		})
	}

	doc, err := structpb.NewStruct(map[string]any{
		"batch":     a.batch,
		"runId":     a.runID,
		"timestamp": ts.UTC().Format(time.DateTime),
		"data":      rows,
	})
	if err != nil {
		return nil, fmt.Errorf("building report document: %w", err)
	}
	return doc, nil
}

// WriteJSON writes the report document as JSON.
func (a *Audit) WriteJSON(w io.Writer, opts WriteOptions) error {
	doc, err := a.Document(opts)
	if err != nil {
		return err
	}

	marshal := protojson.MarshalOptions{}
	if opts.Pretty {
		marshal.Multiline = true
		marshal.Indent = "  "
	}

	data, err := marshal.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
