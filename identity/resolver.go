package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/report"
)

// Resolver attaches authorities to the institution-matched authors of an article.
type Resolver struct {
	lookup    Lookuper
	aliases   Aliases
	threshold float64
	audit     *report.Audit
}

// NewResolver creates a resolver. A nil audit disables recording; a
// non-positive threshold uses DefaultThreshold.
func NewResolver(lookup Lookuper, aliases Aliases, threshold float64, audit *report.Audit) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		lookup:    lookup,
		aliases:   aliases,
		threshold: threshold,
		audit:     audit,
	}
}

// ResolveArticle looks up every matched author in order. The first lookup
// failure is returned and the remaining authors are left untouched.
func (r *Resolver) ResolveArticle(ctx context.Context, a *article.Article) error {
	matched := a.MatchedAuthors()
	for i, au := range matched {
		q, err := r.ResolveAuthor(ctx, a, au)
		if err != nil {
			return fmt.Errorf("resolving %s %s on %s: %w", au.FirstName, au.LastName, a, err)
		}
		if r.audit != nil {
			q.AuthorIndex = i + 1
			q.MatchedAuthors = len(matched)
			q.AllAuthors = len(a.Authors)
			r.audit.Add(q)
		}
	}
	return nil
}

// ResolveAuthor performs one lookup and applies the selected candidate to
// the author and the article.
func (r *Resolver) ResolveAuthor(ctx context.Context, a *article.Article, au *article.Author) (report.AuthorityQuery, error) {
	q := BuildQuery(au, r.aliases)

	result, err := r.lookup.Lookup(ctx, q)
	if err != nil {
		return report.AuthorityQuery{}, err
	}

	au.MatchCount = len(result.Candidates)

	record := report.AuthorityQuery{
		ExternalID:      a.ExternalID,
		Title:           a.Title,
		AuthorFirst:     au.FirstName,
		AuthorLast:      au.LastName,
		AffiliationText: au.AffiliationText("|"),
		LookupURL:       result.URL,
		CandidateCount:  au.MatchCount,
	}

	best, ok := BestCandidate(result.Candidates, r.threshold)
	if !ok {
		slog.Debug("no identity match", "article", a.String(), "author", au.LastName, "candidates", au.MatchCount)
		return record, nil
	}

	au.IdentityAuthority = best.Authority
	for _, school := range best.Schools {
		au.ResolvedUnits.Add(school)
		a.ResolvedUnits.Add(school)
	}

	record.Matched = true
	record.BestAuthority = best.Authority
	record.BestLabel = best.Label
	record.BestConfidence = best.Confidence

	slog.Debug("identity matched",
		"article", a.String(),
		"author", au.LastName,
		"authority", best.Authority,
		"confidence", best.Confidence,
		"schools", best.Schools,
	)
	return record, nil
}
