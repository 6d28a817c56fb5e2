// Package article holds the normalized article and author records that flow
// through a batch run, plus helpers for working with them.
package article

import "strings"

// Unresolved marks an institution-matched author for whom no authoritative
// identity was established.
const Unresolved = "UNAFFILIATED"

// Default values for fields the archive expects on every item.
const (
	TypeJournalArticle = "Journal Article"
	TypeOther          = "Other"
	VersionOfRecord    = "Version of Record"
)

// Affiliation is one affiliation statement from a record. Authors reference
// affiliations by ID; the text is immutable once extracted.
type Affiliation struct {
	ID    string
	Label string
	Text  string
}

// File is a binary attachment staged alongside an article.
type File struct {
	URL  string
	Name string
	Path string
}

// Article is one harvested record after extraction.
type Article struct {
	Title       string
	Journal     string
	Type        string
	ExternalID  string
	DOI         string
	ISSN        string
	Publisher   string
	Abstract    string
	Volume      string
	Issue       string
	FirstPage   string
	LastPage    string
	ElocationID string
	Date        string
	Version     string
	Subjects    []string

	Affiliations []Affiliation
	Authors      []*Author

	// InstitutionUnits is the union of the classifier-assigned units of all authors.
	InstitutionUnits UnitSet
	// InstitutionDepartments is the union of matched department names.
	InstitutionDepartments UnitSet
	// ResolvedUnits is the union of units reported by the identity service.
	ResolvedUnits UnitSet

	AllMatchedResolved bool
	AnyMatchedResolved bool

	License    string
	Citation   string
	HasVersion string
	Files      []File
}

// New returns an article with its defaults filled in.
func New() *Article {
	return &Article{
		Type:                   TypeJournalArticle,
		Version:                VersionOfRecord,
		InstitutionUnits:       UnitSet{},
		InstitutionDepartments: UnitSet{},
		ResolvedUnits:          UnitSet{},
	}
}

// MatchedAuthors returns the authors whose affiliation text matched the institution.
func (a *Article) MatchedAuthors() []*Author {
	var matched []*Author
	for _, author := range a.Authors {
		if author.MatchedInstitution {
			matched = append(matched, author)
		}
	}
	return matched
}

// AffiliationByID returns the affiliation with the given ID.
func (a *Article) AffiliationByID(id string) (Affiliation, bool) {
	for _, aff := range a.Affiliations {
		if aff.ID == id {
			return aff, true
		}
	}
	return Affiliation{}, false
}

// HasFiles reports whether any attachment was staged.
func (a *Article) HasFiles() bool {
	return len(a.Files) > 0
}

// PageRange renders first and last page as "first-last", or just the first
// page when the range is a single page.
func (a *Article) PageRange() string {
	if a.FirstPage == "" {
		return ""
	}
	if a.LastPage != "" && a.LastPage != a.FirstPage {
		return a.FirstPage + "-" + a.LastPage
	}
	return a.FirstPage
}

// String returns a short identifying label for log output.
func (a *Article) String() string {
	var sb strings.Builder
	sb.WriteString("PMC")
	sb.WriteString(a.ExternalID)
	if a.DOI != "" {
		sb.WriteString(" doi:")
		sb.WriteString(a.DOI)
	}
	return sb.String()
}
