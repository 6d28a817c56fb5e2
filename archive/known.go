// Package archive answers whether an article is already held by the
// destination archive.
package archive

import (
	"strings"

	"github.com/osc-library/pmcdash/article"
)

// Reasons reported by IsDuplicate.
const (
	ReasonDOI        = "doi"
	ReasonExternalID = "external_id"
	ReasonTitle      = "title"
)

// Known holds the identifiers of items already in the archive.
type Known struct {
	DOIs        map[string]struct{}
	Titles      map[string]struct{}
	ExternalIDs map[string]struct{}
}

// NewKnown returns empty sets.
func NewKnown() *Known {
	return &Known{
		DOIs:        map[string]struct{}{},
		Titles:      map[string]struct{}{},
		ExternalIDs: map[string]struct{}{},
	}
}

// AddDOI records a DOI.
func (k *Known) AddDOI(doi string) {
	if doi = strings.TrimSpace(doi); doi != "" {
		k.DOIs[doi] = struct{}{}
	}
}

// AddTitle records an exact title.
func (k *Known) AddTitle(title string) {
	if title != "" {
		k.Titles[title] = struct{}{}
	}
}

// AddExternalID records a PMC id, with or without its "PMC" prefix.
func (k *Known) AddExternalID(id string) {
	if id = normalizeExternalID(id); id != "" {
		k.ExternalIDs[id] = struct{}{}
	}
}

// Len returns the total number of recorded identifiers.
func (k *Known) Len() int {
	return len(k.DOIs) + len(k.Titles) + len(k.ExternalIDs)
}

// IsDuplicate reports whether any single identifier of a is known, and which.
// Matching is exact.
func (k *Known) IsDuplicate(a *article.Article) (string, bool) {
	if a.DOI != "" {
		if _, ok := k.DOIs[a.DOI]; ok {
			return ReasonDOI, true
		}
	}
	if id := normalizeExternalID(a.ExternalID); id != "" {
		if _, ok := k.ExternalIDs[id]; ok {
			return ReasonExternalID, true
		}
	}
	if _, ok := k.Titles[a.Title]; ok && a.Title != "" {
		return ReasonTitle, true
	}
	return "", false
}

func normalizeExternalID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "PMC")
}
