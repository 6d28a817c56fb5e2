// Package classify maps free-text affiliation statements to institutional
// unit codes.
//
// Classification is an ordered cascade of rules. Each affiliation string is
// evaluated against the rules in file order and the first matching rule wins
// for that string. An author accumulates the assignments of all of their
// affiliation strings.
package classify

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSet contains the classification cascade for one institution.
type RuleSet struct {
	// Name identifies this rule set
	Name string `yaml:"name" json:"name"`

	// Description documents what these rules are for
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// EmailDomain is removed from affiliation text before matching so that an
	// email address alone is not affiliation evidence (e.g., "harvard.edu")
	EmailDomain string `yaml:"email_domain,omitempty" json:"email_domain,omitempty"`

	// Screen is the cheap pre-check applied to raw record markup
	Screen Screen `yaml:"screen,omitempty" json:"screen,omitempty"`

	// Rules is the ordered cascade; earlier rules take priority
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Screen decides whether a record is worth full extraction.
type Screen struct {
	// Term must appear in the lowercased markup
	Term string `yaml:"term" json:"term"`

	// Ignore lists phrases removed before looking for Term
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
}

// Rule pairs a predicate on normalized affiliation text with the assignment
// made when it matches.
type Rule struct {
	// Name identifies this rule for debugging/logging
	Name string `yaml:"name" json:"name"`

	// Description documents what this rule does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// When defines the conditions that must be met for this rule to apply
	When Condition `yaml:"when" json:"when"`

	// Then defines the assignment made when conditions are met
	Then Action `yaml:"then" json:"then"`
}

// Condition is a predicate on normalized (lowercase) affiliation text.
type Condition struct {
	// Contains matches if the text contains this substring
	Contains string `yaml:"contains,omitempty" json:"contains,omitempty"`

	// ContainsAny matches if the text contains any of these phrases
	ContainsAny []string `yaml:"contains_any,omitempty" json:"contains_any,omitempty"`

	// Matches is a regex pattern to match against
	Matches string `yaml:"matches,omitempty" json:"matches,omitempty"`

	// All requires all sub-conditions to match (AND)
	All []Condition `yaml:"all,omitempty" json:"all,omitempty"`

	// Any requires at least one sub-condition to match (OR)
	Any []Condition `yaml:"any,omitempty" json:"any,omitempty"`

	// Not inverts the sub-condition
	Not *Condition `yaml:"not,omitempty" json:"not,omitempty"`

	re *regexp.Regexp
}

// Action describes the unit assignment of a matched rule.
type Action struct {
	// Unit is the code assigned. An explicit empty string assigns the
	// unit-unknown sentinel; a missing value assigns nothing.
	Unit *string `yaml:"unit,omitempty" json:"unit,omitempty"`

	// Departments switches the rule to department vocabulary lookup
	Departments *DepartmentAction `yaml:"departments,omitempty" json:"departments,omitempty"`
}

// DepartmentAction assigns Unit when a department from the vocabulary is
// found in the text and Fallback otherwise.
type DepartmentAction struct {
	Unit     string `yaml:"unit" json:"unit"`
	Fallback string `yaml:"fallback" json:"fallback"`
}

// Evaluate checks if the condition matches the given text.
func (c *Condition) Evaluate(text string) bool {
	// Handle composite conditions first
	if len(c.All) > 0 {
		for i := range c.All {
			if !c.All[i].Evaluate(text) {
				return false
			}
		}
		return true
	}

	if len(c.Any) > 0 {
		for i := range c.Any {
			if c.Any[i].Evaluate(text) {
				return true
			}
		}
		return false
	}

	if c.Not != nil {
		return !c.Not.Evaluate(text)
	}

	if c.Contains != "" {
		return strings.Contains(text, strings.ToLower(c.Contains))
	}

	if len(c.ContainsAny) > 0 {
		for _, phrase := range c.ContainsAny {
			if strings.Contains(text, strings.ToLower(phrase)) {
				return true
			}
		}
		return false
	}

	if c.Matches != "" {
		if c.re == nil {
			re, err := regexp.Compile(c.Matches)
			if err != nil {
				return false
			}
			c.re = re
		}
		return c.re.MatchString(text)
	}

	// An empty condition never matches; a catch-all rule must say so.
	return false
}

// compile validates and caches regular expressions.
func (c *Condition) compile() error {
	if c.Matches != "" {
		re, err := regexp.Compile(c.Matches)
		if err != nil {
			return fmt.Errorf("compiling %q: %w", c.Matches, err)
		}
		c.re = re
	}
	for i := range c.All {
		if err := c.All[i].compile(); err != nil {
			return err
		}
	}
	for i := range c.Any {
		if err := c.Any[i].compile(); err != nil {
			return err
		}
	}
	if c.Not != nil {
		return c.Not.compile()
	}
	return nil
}

// Validate compiles patterns and checks that every rule assigns something.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rule set %q has no rules", rs.Name)
	}
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		if err := rule.When.compile(); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		if rule.Then.Unit == nil && rule.Then.Departments == nil {
			return fmt.Errorf("rule %q assigns no unit", rule.Name)
		}
	}
	return nil
}

// Match returns the first rule whose condition matches text.
func (rs *RuleSet) Match(text string) (*Rule, bool) {
	for i := range rs.Rules {
		if rs.Rules[i].When.Evaluate(text) {
			return &rs.Rules[i], true
		}
	}
	return nil, false
}

// LoadRuleSet loads a rule set from a YAML file.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return LoadRuleSetFromBytes(data)
}

// LoadRuleSetFromBytes loads a rule set from YAML bytes.
func LoadRuleSetFromBytes(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules YAML: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}
