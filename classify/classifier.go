package classify

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/osc-library/pmcdash/article"
)

// Assignment is the outcome of classifying one affiliation string.
type Assignment struct {
	// Rule is the name of the matched rule
	Rule string
	// Unit is the assigned unit code; "" is the unit-unknown sentinel
	Unit string
	// Departments are the matched department names, if any
	Departments []string
	// Text is the normalized affiliation text
	Text string
}

// Classifier applies a rule set and department vocabulary to affiliation text.
type Classifier struct {
	rules       *RuleSet
	departments []string
	apostrophes *strings.Replacer
}

// New creates a classifier. The rule set must already be validated.
func New(rules *RuleSet, departments []string) *Classifier {
	return &Classifier{
		rules:       rules,
		departments: departments,
		apostrophes: strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'"),
	}
}

// Rules returns the underlying rule set.
func (c *Classifier) Rules() *RuleSet {
	return c.rules
}

// Normalize lowercases text, folds typographic apostrophes and removes the
// institution email domain.
func (c *Classifier) Normalize(text string) string {
	text = norm.NFC.String(text)
	text = c.apostrophes.Replace(strings.ToLower(text))
	if c.rules.EmailDomain != "" {
		text = strings.ReplaceAll(text, strings.ToLower(c.rules.EmailDomain), "")
	}
	return text
}

// Classify evaluates the cascade against a single affiliation string.
func (c *Classifier) Classify(text string) (Assignment, bool) {
	normalized := c.Normalize(text)

	rule, ok := c.rules.Match(normalized)
	if !ok {
		return Assignment{}, false
	}

	result := Assignment{Rule: rule.Name, Text: normalized}
	switch {
	case rule.Then.Departments != nil:
		if depts := c.matchDepartments(normalized); len(depts) > 0 {
			result.Unit = rule.Then.Departments.Unit
			result.Departments = depts
		} else {
			result.Unit = rule.Then.Departments.Fallback
		}
	case rule.Then.Unit != nil:
		result.Unit = *rule.Then.Unit
	}

	return result, true
}

// matchDepartments returns every vocabulary entry found in text, in
// vocabulary order. Both sides have "&" folded to "and". Longer entries are
// matched first and masked out, so "History" is not found inside
// "History of Science".
func (c *Classifier) matchDepartments(text string) []string {
	text = strings.ReplaceAll(text, "&", "and")

	needles := make([]string, len(c.departments))
	order := make([]int, 0, len(c.departments))
	for i, dept := range c.departments {
		needles[i] = strings.ReplaceAll(strings.ToLower(dept), "&", "and")
		if needles[i] != "" {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(needles[order[a]]) > len(needles[order[b]])
	})

	found := make([]bool, len(c.departments))
	for _, i := range order {
		if strings.Contains(text, needles[i]) {
			found[i] = true
			text = strings.ReplaceAll(text, needles[i], "|")
		}
	}

	var depts []string
	for i, dept := range c.departments {
		if found[i] {
			depts = append(depts, dept)
		}
	}
	return depts
}

// ClassifyAuthor classifies every affiliation of the author and records the
// results on it. Assignments accumulate across affiliation strings.
func (c *Classifier) ClassifyAuthor(au *article.Author) []Assignment {
	var assignments []Assignment
	for _, aff := range au.Affiliations {
		result, ok := c.Classify(aff.Text)
		if !ok {
			continue
		}
		au.MatchedInstitution = true
		au.InstitutionUnits.Add(result.Unit)
		for _, dept := range result.Departments {
			au.DeptMatches.Add(dept)
		}
		au.AffTexts = append(au.AffTexts, result.Text)
		assignments = append(assignments, result)
	}
	return assignments
}

// ClassifyArticle classifies all authors and unions their units and
// departments into the article.
func (c *Classifier) ClassifyArticle(a *article.Article) {
	for _, au := range a.Authors {
		for _, result := range c.ClassifyAuthor(au) {
			slog.Debug("affiliation matched", "article", a.ExternalID, "author", au.InvertedName(), "rule", result.Rule, "unit", result.Unit, "departments", result.Departments)
		}
		a.InstitutionUnits.Union(au.InstitutionUnits)
		a.InstitutionDepartments.Union(au.DeptMatches)
	}
}

// MentionsInstitution is the cheap pre-check on raw affiliation markup. It
// ignores the configured phrases such as email domains and street names.
func (c *Classifier) MentionsInstitution(raw string) bool {
	screen := c.rules.Screen
	if screen.Term == "" {
		return true
	}
	text := strings.ToLower(raw)
	for _, phrase := range screen.Ignore {
		text = strings.ReplaceAll(text, strings.ToLower(phrase), "")
	}
	return strings.Contains(text, strings.ToLower(screen.Term))
}
