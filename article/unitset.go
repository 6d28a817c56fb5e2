package article

import (
	"sort"
	"strings"
)

// UnitSet is a set of institutional unit codes. The empty string is a legal
// member meaning "affiliated, unit unknown".
type UnitSet map[string]struct{}

// NewUnitSet returns a set holding the given codes.
func NewUnitSet(codes ...string) UnitSet {
	s := make(UnitSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts code, allocating the set if needed.
func (s *UnitSet) Add(code string) {
	if *s == nil {
		*s = UnitSet{}
	}
	(*s)[code] = struct{}{}
}

// Union adds every member of other.
func (s *UnitSet) Union(other UnitSet) {
	for c := range other {
		s.Add(c)
	}
}

// Has reports membership.
func (s UnitSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Len returns the number of members.
func (s UnitSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s UnitSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// NonEmpty returns the sorted members excluding the unit-unknown sentinel.
func (s UnitSet) NonEmpty() []string {
	var out []string
	for _, c := range s.Sorted() {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// String renders the set as a sorted, comma-separated list.
func (s UnitSet) String() string {
	return "{" + strings.Join(s.Sorted(), ",") + "}"
}
