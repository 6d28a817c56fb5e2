// Package aggregate folds per-author results into article-level flags and a
// routing decision.
package aggregate

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/osc-library/pmcdash/article"
)

// ErrUnroutable is returned when an article has no unit to route it by.
var ErrUnroutable = errors.New("article has no routable institution unit")

// Flags sets AnyMatchedResolved and AllMatchedResolved on the article. All is
// vacuously true when no author matched the institution.
func Flags(a *article.Article) {
	a.AnyMatchedResolved = false
	a.AllMatchedResolved = true
	for _, au := range a.Authors {
		if !au.MatchedInstitution {
			continue
		}
		if au.Resolved() {
			a.AnyMatchedResolved = true
		} else {
			a.AllMatchedResolved = false
		}
	}
}

// Router maps article units to a target collection key.
type Router struct {
	codes *CodeTable
}

// NewRouter creates a router using the given code table.
func NewRouter(codes *CodeTable) *Router {
	if codes == nil {
		codes = NewCodeTable(nil)
	}
	return &Router{codes: codes}
}

// TargetCollection returns the collection key for the article. Units resolved
// by the directory are preferred; the classifier's units are the fallback. An empty key is
// returned together with ErrUnroutable.
func (r *Router) TargetCollection(a *article.Article) (string, error) {
	var parts []string
	for _, unit := range a.ResolvedUnits.Sorted() {
		code, ok := r.codes.ToArchive(unit)
		if !ok {
			slog.Warn("resolved unit has no archive code", "article", a.String(), "unit", unit)
			continue
		}
		parts = append(parts, code)
	}

	// classifier units already use archive codes; the unit-unknown
	// sentinel never names a collection
	if len(parts) == 0 {
		for _, unit := range a.InstitutionUnits.NonEmpty() {
			if code, ok := r.codes.ToArchive(unit); ok {
				parts = append(parts, code)
			} else {
				parts = append(parts, unit)
			}
		}
	}

	key := strings.Join(parts, "_")
	if key == "" {
		return "", ErrUnroutable
	}
	return key, nil
}
