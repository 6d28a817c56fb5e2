package article

import "log/slog"

type nameKey struct {
	last  string
	first string
}

// DedupeAuthors collapses entries that denote the same person. Two entries are
// the same person when last and first names are equal, including both first
// names being absent. Entries without a last name are dropped. The first
// occurrence wins and later duplicates are discarded without merging their
// affiliations. It returns the kept authors and the number of duplicates
// discarded.
func DedupeAuthors(authors []*Author) ([]*Author, int) {
	seen := make(map[nameKey]bool, len(authors))
	kept := make([]*Author, 0, len(authors))
	duplicates := 0

	for _, author := range authors {
		if author == nil || author.LastName == "" {
			continue
		}
		key := nameKey{last: author.LastName, first: author.FirstName}
		if seen[key] {
			duplicates++
			slog.Debug("discarding duplicate author", "last", author.LastName, "first", author.FirstName)
			continue
		}
		seen[key] = true
		kept = append(kept, author)
	}

	return kept, duplicates
}
