// Package format defines the interface for metadata format plugins.
package format

import (
	"errors"
	"io"

	"github.com/osc-library/pmcdash/article"
)

// ErrMissingField is returned when a record lacks a field every article must have.
var ErrMissingField = errors.New("record is missing a required field")

// Format defines the interface that all format plugins must implement.
type Format interface {
	// Name returns the format identifier (e.g., "jats", "dublincore")
	Name() string

	// Description returns a human-readable format description
	Description() string

	// Extensions returns file extensions associated with this format
	Extensions() []string

	// CanParse returns true if this format can parse the given input
	CanParse(peek []byte) bool
}

// Record is one harvested record before extraction.
type Record struct {
	// Identifier is the harvest identifier, e.g. "oai:pubmedcentral.nih.gov:123"
	Identifier string

	// Deleted marks a tombstone record with no metadata
	Deleted bool

	// Data is the record's metadata markup
	Data []byte
}

// Parser is a format that can read harvested records into articles.
type Parser interface {
	Format

	// Split reads a harvested page and returns its records in order.
	Split(r io.Reader) ([]Record, error)

	// Screen reports whether any affiliation markup in the record satisfies
	// match. It is much cheaper than Extract.
	Screen(rec Record, match func(markup string) bool) (bool, error)

	// Extract builds an article from a record. Records missing a required
	// field return an error wrapping ErrMissingField.
	Extract(rec Record, opts *ParseOptions) (*article.Article, error)
}

// Serializer is a format that can write an article.
type Serializer interface {
	Format

	// Serialize writes one article to the output.
	Serialize(w io.Writer, a *article.Article, opts *SerializeOptions) error
}

// ParseOptions contains options for parsing.
type ParseOptions struct {
	// SourceName is an identifier for the source (for error messages)
	SourceName string
}

// SerializeOptions contains options for serialization.
type SerializeOptions struct {
	// Batch names the batch the article was loaded in
	Batch string

	// Pretty enables pretty-printing (for JSON/XML formats)
	Pretty bool

	// ExtraWriters holds additional output writers for formats that produce
	// more than one output file. Keys are format-specific names.
	// Example: the dublincore format writes the local schema to ExtraWriters["dash"].
	ExtraWriters map[string]io.Writer
}

// NewParseOptions creates ParseOptions with defaults.
func NewParseOptions() *ParseOptions {
	return &ParseOptions{}
}

// NewSerializeOptions creates SerializeOptions with defaults.
func NewSerializeOptions() *SerializeOptions {
	return &SerializeOptions{
		Pretty:       true,
		ExtraWriters: map[string]io.Writer{},
	}
}
