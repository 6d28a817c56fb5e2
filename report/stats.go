package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/osc-library/pmcdash/article"
)

// Counter names a batch statistic.
type Counter string

// Batch counters.
const (
	OAIPages                 Counter = "oai_pages"
	ArticlesTotal            Counter = "articles_total"
	ArticlesInstitution      Counter = "articles_institution"
	ArticlesErrorParse       Counter = "articles_error_parse"
	ArticlesErrorNoSchool    Counter = "articles_error_no_valid_school"
	ArticlesErrorNoFiles     Counter = "articles_error_no_files"
	ArticlesAlreadyInArchive Counter = "articles_already_in_archive"
	ArticlesLoaded           Counter = "articles_loaded"
	FoundAllAuths            Counter = "found_all_auths"
	FoundAnyAuths            Counter = "found_any_auths"
	FoundNoAuths             Counter = "found_no_auths"
	AuthorsCount             Counter = "authors_count"
	AuthorsMatched           Counter = "authors_matched_count"
	AuthorsNoMatches         Counter = "authors_no_matches_count"
	AuthorsSingleMatch       Counter = "authors_single_match_count"
	AuthorsMultipleMatches   Counter = "authors_multiple_matches_count"
)

var allCounters = []Counter{
	OAIPages, ArticlesTotal, ArticlesInstitution, ArticlesErrorParse, ArticlesErrorNoSchool,
	ArticlesErrorNoFiles, ArticlesAlreadyInArchive, ArticlesLoaded, FoundAllAuths,
	FoundAnyAuths, FoundNoAuths, AuthorsCount, AuthorsMatched, AuthorsNoMatches,
	AuthorsSingleMatch, AuthorsMultipleMatches,
}

// Stats holds the increment-only counters of one batch run.
type Stats struct {
	mu     sync.Mutex
	batch  string
	counts map[Counter]int
}

// NewStats returns zeroed counters for the named batch.
func NewStats(batch string) *Stats {
	counts := make(map[Counter]int, len(allCounters))
	for _, c := range allCounters {
		counts[c] = 0
	}
	return &Stats{batch: batch, counts: counts}
}

// Inc adds one to a counter.
func (s *Stats) Inc(c Counter) {
	s.Add(c, 1)
}

// Add adds n (which must not be negative) to a counter.
func (s *Stats) Add(c Counter, n int) {
	if n < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[c] += n
}

// Get returns the current value of a counter.
func (s *Stats) Get(c Counter) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[c]
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() map[Counter]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Counter]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// CountAuthor records the lookup outcome of an institution-matched author.
func (s *Stats) CountAuthor(au *article.Author) {
	s.Inc(AuthorsCount)
	if au.Resolved() {
		s.Inc(AuthorsMatched)
	}
	switch {
	case au.MatchCount == 0:
		s.Inc(AuthorsNoMatches)
	case au.MatchCount == 1:
		s.Inc(AuthorsSingleMatch)
	default:
		s.Inc(AuthorsMultipleMatches)
	}
}

// CountArticle records the article-level resolution flags. Articles with no
// resolved author never count toward found_all_auths, even though their
// AllMatchedResolved flag holds vacuously.
func (s *Stats) CountArticle(a *article.Article) {
	if !a.AnyMatchedResolved {
		s.Inc(FoundNoAuths)
		return
	}
	s.Inc(FoundAnyAuths)
	if a.AllMatchedResolved {
		s.Inc(FoundAllAuths)
	}
}

// WriteTable writes the counters sorted by name as an aligned two-column table.
func (s *Stats) WriteTable(w io.Writer) error {
	snapshot := s.Snapshot()

	names := make([]string, 0, len(snapshot)+1)
	for c := range snapshot {
		names = append(names, string(c))
	}
	sort.Strings(names)

	rows := [][2]string{{"batch", s.batch}}
	for _, name := range names {
		rows = append(rows, [2]string{name, fmt.Sprintf("%d", snapshot[Counter(name)])})
	}

	width := 0
	for _, row := range rows {
		if n := runewidth.StringWidth(row[0]); n > width {
			width = n
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(row[0])
		sb.WriteString(":")
		sb.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(row[0])+1))
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
