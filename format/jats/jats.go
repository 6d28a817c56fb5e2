// Package jats provides a format plugin for JATS article front matter as
// harvested from PubMed Central's OAI-PMH service (metadataPrefix=pmc_fm).
package jats

import (
	"bytes"

	"github.com/osc-library/pmcdash/format"
)

// Format implements the JATS front matter format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format = (*Format)(nil)
	_ format.Parser = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "jats"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "JATS article front matter (OAI-PMH pmc_fm)"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"xml", "nxml"}
}

// CanParse returns true if the input looks like an OAI-PMH page or a JATS article.
func (f *Format) CanParse(peek []byte) bool {
	peek = bytes.TrimSpace(peek)
	if len(peek) == 0 || peek[0] != '<' {
		return false
	}

	patterns := [][]byte{
		[]byte("<OAI-PMH"),
		[]byte("jats.nlm.nih.gov"),
		[]byte("<article-meta"),
		[]byte("<!DOCTYPE article"),
	}
	for _, pattern := range patterns {
		if bytes.Contains(peek, pattern) {
			return true
		}
	}
	return false
}

func init() {
	format.Register(&Format{})
}
