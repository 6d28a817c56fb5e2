// Package citation renders the house citation style used for archive items.
package citation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/osc-library/pmcdash/article"
)

const (
	// etAlThreshold is the author count from which the list is truncated
	etAlThreshold = 11
	// etAlShown is the number of authors named before "et al."
	etAlShown = 7
)

// Options controls the side effects of rendering.
type Options struct {
	// DefaultIssue fills in IssueValue when an article has a volume but no
	// issue, mirroring the archive's indexing convention.
	DefaultIssue bool
	IssueValue   string
}

// DefaultOptions returns the options used by batch runs.
func DefaultOptions() Options {
	return Options{DefaultIssue: true, IssueValue: "1"}
}

var (
	whitespace = regexp.MustCompile(`[\s\x{85}\p{Z}]+`)
	spaces     = regexp.MustCompile(` +`)
)

// Render builds the citation for a. The only change made to a is the issue
// default, which is idempotent, so rendering twice yields the same string.
func Render(a *article.Article, opts Options) string {
	citation := Authors(a.Authors)
	citation += ". " + a.Date + ". “" + a.Title + ".” "
	citation += a.Journal + " "

	// the order matters: ", ." only exists because of the author separators
	citation = strings.ReplaceAll(citation, ", .", ".")
	citation = strings.ReplaceAll(citation, "..", ".")
	citation = whitespace.ReplaceAllString(citation, " ")
	citation = strings.ReplaceAll(citation, "?.", "?")

	if a.Volume != "" {
		citation += a.Volume
		if a.Issue == "" && opts.DefaultIssue {
			a.Issue = opts.IssueValue
		}
	}
	if a.Issue != "" {
		citation += " (" + a.Issue + ")"
	}
	if a.FirstPage != "" {
		citation += ": " + a.PageRange()
	}

	citation = strings.TrimLeft(citation, " \t\n\r\v\f")

	if a.ElocationID != "" {
		citation += ":"
		if a.Issue != "" {
			citation += " "
		}
		citation += a.ElocationID
	}

	if a.DOI != "" {
		citation += ". doi:" + a.DOI
		citation += ". http://dx.doi.org/" + a.DOI
	}

	citation = spaces.ReplaceAllString(citation, " ")
	citation = strings.ReplaceAll(citation, " ,", ",")
	return citation + "."
}

// Authors renders the author list. The first author is inverted, the rest are
// in direct order with "and " before the last. Long lists are cut to seven
// authors with initials and "et al.". Group credits contribute their name only.
func Authors(authors []*article.Author) string {
	truncate := len(authors) >= etAlThreshold

	var citation string
	for i, au := range authors {
		n := i + 1
		if truncate && n > etAlShown {
			citation += "et al."
			break
		}

		first := au.FirstName
		if truncate {
			first = Initials(first)
		}

		switch {
		case !au.IsPerson():
			citation += au.LastName
		case n == 1:
			citation += au.LastName + ", " + first + ", "
		default:
			if n == len(authors) {
				// an initial before the separator keeps its period
				if runeFromEnd(citation, 4) == ' ' && strings.HasSuffix(citation, ", ") {
					citation = strings.TrimSuffix(citation, ", ") + "., "
				}
				citation += "and "
			}
			citation += first + " " + au.LastName + ", "
		}
	}
	return citation
}

// runeFromEnd returns the nth rune counting back from the end of s, or
// utf8.RuneError when s is shorter.
func runeFromEnd(s string, n int) rune {
	r := utf8.RuneError
	for ; n > 0 && s != ""; n-- {
		var size int
		r, size = utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	if n > 0 {
		return utf8.RuneError
	}
	return r
}

// Initials abbreviates every space-separated part of a given name to its
// first letter and a period.
func Initials(first string) string {
	var parts []string
	for _, part := range strings.Split(first, " ") {
		r, _ := utf8.DecodeRuneInString(part)
		if part == "" || r == utf8.RuneError {
			continue
		}
		parts = append(parts, string(r)+".")
	}
	return strings.Join(parts, " ")
}
