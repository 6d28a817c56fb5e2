// Package identity resolves institution-matched authors against the archive's
// author identity service.
package identity

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/osc-library/pmcdash/article"
)

// Query is the set of parameters sent to the identity service for one author.
type Query struct {
	Surname    string
	GivenName  string
	MiddleName string
	School     string
	Title      string
	Department string
}

var (
	leadingMarker = regexp.MustCompile(`^[ß0-9]`)
	departmentOf  = regexp.MustCompile(`department of ([\p{L}\p{N}_ ]+)`)
	schoolOf      = regexp.MustCompile(`school of [^,]+`)
	stopWords     = regexp.MustCompile(`harvard|\d+|cambridge|massachusetts|,|hospital|united states of america|department of|boston|huntington|avenue|kresge| ma | usa|brigham and women's|medical school`)
	spaces        = regexp.MustCompile(` +`)
)

// boilerplate is removed before the stop words, most specific first so a
// shorter phrase never leaves part of a longer one behind.
var boilerplate = []string{
	"broad institute of harvard and massachusetts institute of technology",
	"broad institute of harvard",
	"massachusetts institute of technology",
}

// BuildQuery derives the lookup parameters from a classified author. The
// affiliation texts are concatenated without a separator. Aliases are keyed
// on the first token of the given name.
func BuildQuery(au *article.Author, aliases Aliases) Query {
	var given, middle string
	parts := strings.Fields(au.FirstName)
	if len(parts) > 0 {
		given = parts[0]
	}
	if len(parts) > 1 {
		middle = parts[1]
	}
	given, last := aliases.Apply(given, au.LastName)

	q := Query{Surname: last, GivenName: given, MiddleName: middle}

	q.School = strings.Join(au.InstitutionUnits.NonEmpty(), ",")

	texts := make([]string, 0, len(au.AffTexts))
	for _, text := range au.AffTexts {
		texts = append(texts, leadingMarker.ReplaceAllString(text, ""))
	}
	joined := strings.Join(texts, "")

	q.Title = ScrubTitle(joined)
	q.Department = Department(joined)
	return q
}

// ScrubTitle strips institutional boilerplate, address tokens and punctuation
// from normalized affiliation text, leaving the signal the service matches
// titles against. Commas are already gone when the "school of" phrase is
// removed, so it runs to the end of the text. Runs of spaces collapse to one
// but the ends are not trimmed.
func ScrubTitle(text string) string {
	for _, phrase := range boilerplate {
		text = strings.ReplaceAll(text, phrase, "")
	}
	text = stopWords.ReplaceAllString(text, "")
	text = schoolOf.ReplaceAllString(text, "")
	return spaces.ReplaceAllString(text, " ")
}

// Department returns the first "department of ..." name in text.
func Department(text string) string {
	m := departmentOf.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Values encodes the query. Optional parameters are left out when empty.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("format", "json")
	v.Set("surname", q.Surname)
	if q.GivenName != "" {
		v.Set("givenname", q.GivenName)
	}
	if q.MiddleName != "" {
		v.Set("middlename", q.MiddleName)
	}
	v.Set("school", q.School)
	v.Set("title", q.Title)
	if q.Department != "" {
		v.Set("department", q.Department)
	}
	return v
}

// URL returns the full lookup URL against base. Query parameters already on
// base are kept.
func (q Query) URL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	values := u.Query()
	for k, vs := range q.Values() {
		values[k] = vs
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
