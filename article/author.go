package article

import "strings"

// Author is one contributor of type author on a record.
type Author struct {
	LastName  string
	FirstName string

	// AffIDs are the affiliation references found on the contributor.
	AffIDs       []string
	Affiliations []Affiliation

	MatchedInstitution bool
	InstitutionUnits   UnitSet
	DeptMatches        UnitSet
	ResolvedUnits      UnitSet

	// AffTexts holds the normalized affiliation texts that produced a match,
	// in the order they were classified. The identity query is built from it.
	AffTexts []string

	IdentityAuthority string
	MatchCount        int
}

// NewAuthor returns an unresolved author.
func NewAuthor(last, first string) *Author {
	return &Author{
		LastName:          last,
		FirstName:         first,
		InstitutionUnits:  UnitSet{},
		DeptMatches:       UnitSet{},
		ResolvedUnits:     UnitSet{},
		IdentityAuthority: Unresolved,
	}
}

// Resolved reports whether an authoritative identity was attached.
func (au *Author) Resolved() bool {
	return au.IdentityAuthority != "" && au.IdentityAuthority != Unresolved
}

// IsPerson reports whether the entry carries a given name. Group credits such
// as consortia are rendered with the last name only.
func (au *Author) IsPerson() bool {
	return au.FirstName != ""
}

// InvertedName returns the name in "Last, First" form.
func (au *Author) InvertedName() string {
	if au.FirstName == "" {
		return au.LastName
	}
	return au.LastName + ", " + au.FirstName
}

// DirectName returns the name in "First Last" form.
func (au *Author) DirectName() string {
	if au.FirstName == "" {
		return au.LastName
	}
	return au.FirstName + " " + au.LastName
}

// GivenParts splits the first name into given and middle name tokens.
func (au *Author) GivenParts() (given, middle string) {
	parts := strings.Fields(au.FirstName)
	if len(parts) > 0 {
		given = parts[0]
	}
	if len(parts) > 1 {
		middle = parts[1]
	}
	return given, middle
}

// AffiliationText joins the author's raw affiliation texts with sep.
func (au *Author) AffiliationText(sep string) string {
	texts := make([]string, 0, len(au.Affiliations))
	for _, aff := range au.Affiliations {
		texts = append(texts, aff.Text)
	}
	return strings.Join(texts, sep)
}
