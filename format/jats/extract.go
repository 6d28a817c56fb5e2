package jats

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/format"
	"github.com/osc-library/pmcdash/helpers"
)

var (
	// heading subjects that mark a record as something other than research
	otherTypes = regexp.MustCompile(`^(?:Poster Presentation|Editorial)`)

	// heading-like subjects that leak into non-heading groups
	headingSubjects = regexp.MustCompile(`^(?:Research|Letter|Communication|Dispatch|Tools|Original Research|\d+)`)

	keywordCode = regexp.MustCompile(`^\(\d+\.\d+\)`)

	abstractHeading = regexp.MustCompile(`^(?:Author Summary|Background|Case presentation|Conclusion|Conclusions|Conclusions/Significance|` +
		`Design|eLife digest|Findings|IMPORTANCE|Introduction|` +
		`Main Outcome Measures?|Main Results|Methods(?: (?:&|and) (?:(?:(?:Principal )?Findings)|Results))?|Methods/Findings|` +
		`Objectives?|Participants|Rationale|Research Design & Methods|Results|Setting(?: and Participants)?)$`)
)

func parse(rec format.Record) (*goquery.Document, error) {
	if rec.Deleted || len(rec.Data) == 0 {
		return nil, fmt.Errorf("%w: record %s has no metadata", format.ErrMissingField, rec.Identifier)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Data))
	if err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", rec.Identifier, err)
	}
	return doc, nil
}

// Screen reports whether any aff element's markup satisfies match.
func (f *Format) Screen(rec format.Record, match func(markup string) bool) (bool, error) {
	doc, err := parse(rec)
	if err != nil {
		return false, err
	}

	found := false
	doc.Find("aff").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return true
		}
		found = match(markup)
		return !found
	})
	return found, nil
}

// Extract builds an article from the record's front matter.
func (f *Format) Extract(rec format.Record, opts *format.ParseOptions) (*article.Article, error) {
	if opts == nil {
		opts = format.NewParseOptions()
	}
	source := rec.Identifier
	if source == "" {
		source = opts.SourceName
	}

	doc, err := parse(rec)
	if err != nil {
		return nil, err
	}

	a := article.New()

	a.Journal = first(doc, "journal-title")
	if a.Journal == "" {
		return nil, fmt.Errorf("%w: journal-title in %s", format.ErrMissingField, source)
	}

	titleSel := doc.Find("title-group article-title").First()
	if titleSel.Length() == 0 {
		titleSel = doc.Find("article-title").First()
	}
	a.Title = helpers.Text(titleSel)
	if a.Title == "" {
		return nil, fmt.Errorf("%w: article-title in %s", format.ErrMissingField, source)
	}
	if subtitle := doc.Find("subtitle").First(); subtitle.Length() > 0 {
		a.Title += ": " + helpers.Text(subtitle)
	}

	a.ExternalID = articleID(doc, "pmc-uid")
	if a.ExternalID == "" {
		a.ExternalID = strings.TrimPrefix(articleID(doc, "pmc"), "PMC")
	}
	if a.ExternalID == "" {
		return nil, fmt.Errorf("%w: pmc article-id in %s", format.ErrMissingField, source)
	}

	a.DOI = articleID(doc, "doi")
	a.ISSN = first(doc, "issn")
	a.Publisher = first(doc, "publisher-name")
	a.Volume = first(doc, "volume")
	a.Issue = first(doc, "issue")
	a.FirstPage = first(doc, "fpage")
	a.LastPage = first(doc, "lpage")
	a.ElocationID = first(doc, "elocation-id")

	a.Date = first(doc, "copyright-year")
	if a.Date == "" {
		a.Date = first(doc, "year")
	}
	if a.Date == "" {
		return nil, fmt.Errorf("%w: publication year in %s", format.ErrMissingField, source)
	}

	a.Type = extractType(doc)
	a.Subjects = extractSubjects(doc)
	a.Abstract = extractAbstract(doc)
	a.Affiliations = extractAffiliations(doc)
	a.Authors = extractAuthors(doc, a.Affiliations)

	return a, nil
}

// first returns the text of the first element matching selector.
func first(doc *goquery.Document, selector string) string {
	return helpers.Text(doc.Find(selector).First())
}

func articleID(doc *goquery.Document, idType string) string {
	return first(doc, fmt.Sprintf(`article-id[pub-id-type=%q]`, idType))
}

func extractType(doc *goquery.Document) string {
	result := article.TypeJournalArticle
	doc.Find(`subj-group[subj-group-type="heading"] subject`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if otherTypes.MatchString(helpers.Text(s)) {
			result = article.TypeOther
			return false
		}
		return true
	})
	return result
}

func extractSubjects(doc *goquery.Document) []string {
	var subjects []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			subjects = append(subjects, s)
		}
	}

	doc.Find("subj-group").Each(func(_ int, group *goquery.Selection) {
		if t, _ := group.Attr("subj-group-type"); t == "heading" {
			return
		}
		group.ChildrenFiltered("subject").Each(func(_ int, s *goquery.Selection) {
			text := helpers.Text(s)
			if !headingSubjects.MatchString(text) {
				add(text)
			}
		})
	})

	doc.Find("kwd-group kwd").Each(func(_ int, s *goquery.Selection) {
		add(strings.TrimSpace(keywordCode.ReplaceAllString(helpers.Text(s), "")))
	})
	return subjects
}

// extractAbstract prefers the unqualified abstract over precis and teaser
// variants, and puts a colon after section headings.
func extractAbstract(doc *goquery.Document) string {
	abstracts := doc.Find("abstract")

	var chosen *goquery.Selection
	switch {
	case abstracts.Length() == 1:
		chosen = abstracts
	case abstracts.Length() > 1:
		abstracts.Each(func(_ int, s *goquery.Selection) {
			if _, qualified := s.Attr("abstract-type"); !qualified {
				chosen = s
			}
		})
	}
	if chosen == nil {
		return ""
	}

	var sb strings.Builder
	for _, text := range helpers.TextNodes(chosen) {
		sb.WriteString(text)
		if abstractHeading.MatchString(text) {
			sb.WriteString(": ")
		}
	}
	return helpers.NormalizeWhitespace(sb.String())
}

func extractAffiliations(doc *goquery.Document) []article.Affiliation {
	var affs []article.Affiliation
	doc.Find("aff").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		label := helpers.Text(s.Find("label").First())
		if label == "" {
			label = helpers.Text(s.Find("sup").First())
		}
		affs = append(affs, article.Affiliation{
			ID:    id,
			Label: label,
			Text:  helpers.Text(s),
		})
	})
	return affs
}

// extractAuthors reads contributors of type author. A lone affiliation
// applies to every author; otherwise authors are linked through their aff
// xrefs or affiliations nested inside the contributor. Group credits carry
// the collaboration name as their last name.
func extractAuthors(doc *goquery.Document, affs []article.Affiliation) []*article.Author {
	var authors []*article.Author

	doc.Find(`contrib[contrib-type="author"]`).Each(func(_ int, s *goquery.Selection) {
		last := helpers.Text(s.Find("surname").First())
		given := helpers.Text(s.Find("given-names").First())
		if last == "" {
			last = helpers.Text(s.Find("collab").First())
			given = ""
		}

		au := article.NewAuthor(last, given)

		if len(affs) == 1 {
			au.Affiliations = affs
		} else {
			s.Find(`xref[ref-type="aff"]`).Each(func(_ int, x *goquery.Selection) {
				rid, _ := x.Attr("rid")
				au.AffIDs = append(au.AffIDs, strings.Fields(rid)...)
			})
			for _, aff := range affs {
				for _, id := range au.AffIDs {
					if aff.ID != "" && aff.ID == id {
						au.Affiliations = append(au.Affiliations, aff)
						break
					}
				}
			}
			s.Find("aff").Each(func(_ int, nested *goquery.Selection) {
				if id, ok := nested.Attr("id"); ok && containsID(au.AffIDs, id) {
					return
				}
				au.Affiliations = append(au.Affiliations, article.Affiliation{Text: helpers.Text(nested)})
			})
		}

		authors = append(authors, au)
	})

	return authors
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
