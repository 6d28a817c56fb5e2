package jats

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/format"
)

func loadRecords(t *testing.T) []format.Record {
	t.Helper()
	file, err := os.Open("testdata/oai_page.xml")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	records, err := (&Format{}).Split(file)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	return records
}

func TestSplit(t *testing.T) {
	records := loadRecords(t)

	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[0].Identifier != "oai:pubmedcentral.nih.gov:3668000" {
		t.Errorf("identifier = %q", records[0].Identifier)
	}
	if !records[3].Deleted {
		t.Error("fourth record should be deleted")
	}
	if records[0].Deleted || len(records[0].Data) == 0 {
		t.Error("first record should carry metadata")
	}
}

func TestSplitBareArticle(t *testing.T) {
	input := `<?xml version="1.0"?><article><front><journal-meta><journal-title>J</journal-title></journal-meta></front></article>`
	records, err := (&Format{}).Split(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(records) != 1 || !strings.Contains(string(records[0].Data), "<journal-title>J</journal-title>") {
		t.Errorf("records = %+v", records)
	}
}

func TestSplitEmpty(t *testing.T) {
	if _, err := (&Format{}).Split(strings.NewReader("  ")); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestScreen(t *testing.T) {
	records := loadRecords(t)
	mentions := func(markup string) bool {
		lower := strings.ToLower(markup)
		lower = strings.ReplaceAll(lower, "harvard.edu", "")
		return strings.Contains(lower, "harvard")
	}

	tests := []struct {
		index int
		want  bool
	}{
		{0, true},
		{1, false},
		{2, true},
	}
	for _, tt := range tests {
		got, err := (&Format{}).Screen(records[tt.index], mentions)
		if err != nil {
			t.Fatalf("Screen(%d) error: %v", tt.index, err)
		}
		if got != tt.want {
			t.Errorf("Screen(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}

	if _, err := (&Format{}).Screen(records[3], mentions); !errors.Is(err, format.ErrMissingField) {
		t.Errorf("deleted record error = %v", err)
	}
}

func TestExtract(t *testing.T) {
	records := loadRecords(t)

	a, err := (&Format{}).Extract(records[0], nil)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Title", a.Title, "Mapping anhedonia onto reinforcement learning: a behavioural meta-analysis"},
		{"Journal", a.Journal, "Biology of Mood & Anxiety Disorders"},
		{"ExternalID", a.ExternalID, "3668000"},
		{"DOI", a.DOI, "10.1186/2045-5380-3-12"},
		{"ISSN", a.ISSN, "2045-5380"},
		{"Publisher", a.Publisher, "BioMed Central"},
		{"Volume", a.Volume, "3"},
		{"Issue", a.Issue, ""},
		{"FirstPage", a.FirstPage, "12"},
		{"Date", a.Date, "2013"},
		{"Type", a.Type, article.TypeJournalArticle},
		{"Abstract", a.Abstract, "Background: Anhedonia is a core symptom. Methods: We fit models."},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}

	wantSubjects := []string{"Psychiatry", "Anhedonia", "Reinforcement learning"}
	if strings.Join(a.Subjects, "|") != strings.Join(wantSubjects, "|") {
		t.Errorf("Subjects = %q, want %q", a.Subjects, wantSubjects)
	}

	if len(a.Affiliations) != 2 || a.Affiliations[1].ID != "I2" || a.Affiliations[1].Label != "2" {
		t.Fatalf("Affiliations = %+v", a.Affiliations)
	}
	if a.Affiliations[1].Text != "2Department of Psychiatry, Harvard Medical School, Belmont, MA, USA" {
		t.Errorf("aff text = %q", a.Affiliations[1].Text)
	}

	// editors are not authors; duplicates survive extraction and are
	// removed later
	if len(a.Authors) != 4 {
		t.Fatalf("got %d authors, want 4", len(a.Authors))
	}
	huys := a.Authors[0]
	if huys.LastName != "Huys" || huys.FirstName != "Quentin JM" {
		t.Errorf("first author = %q %q", huys.FirstName, huys.LastName)
	}
	if len(huys.Affiliations) != 1 || huys.Affiliations[0].ID != "I1" {
		t.Errorf("Huys affiliations = %+v", huys.Affiliations)
	}
	if aff := a.Authors[1].Affiliations; len(aff) != 1 || aff[0].ID != "I2" {
		t.Errorf("Pizzagalli affiliations = %+v", aff)
	}
	group := a.Authors[3]
	if group.LastName != "Reward Consortium" || group.IsPerson() {
		t.Errorf("group credit = %+v", group)
	}
	if group.IdentityAuthority != article.Unresolved {
		t.Errorf("authors should start unresolved")
	}
}

func TestExtractFallbacks(t *testing.T) {
	records := loadRecords(t)

	a, err := (&Format{}).Extract(records[1], nil)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if a.ExternalID != "3668001" {
		t.Errorf("ExternalID = %q, want pmc id without prefix", a.ExternalID)
	}
	if a.Type != article.TypeOther {
		t.Errorf("Type = %q, want %q", a.Type, article.TypeOther)
	}
	if a.Title != "An editorial note" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Date != "2011" || a.ElocationID != "e14" || a.Issue != "2" {
		t.Errorf("Date/Elocation/Issue = %q/%q/%q", a.Date, a.ElocationID, a.Issue)
	}
	// a single affiliation applies to every author
	if len(a.Authors) != 1 || len(a.Authors[0].Affiliations) != 1 {
		t.Errorf("authors = %+v", a.Authors)
	}
}

func TestExtractMissingJournal(t *testing.T) {
	records := loadRecords(t)

	_, err := (&Format{}).Extract(records[2], nil)
	if !errors.Is(err, format.ErrMissingField) {
		t.Errorf("error = %v, want ErrMissingField", err)
	}
}

func TestCanParse(t *testing.T) {
	f := &Format{}
	if !f.CanParse([]byte(`<?xml version="1.0"?><OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">`)) {
		t.Error("should accept an OAI-PMH page")
	}
	if f.CanParse([]byte(`{"title": "x"}`)) {
		t.Error("should reject JSON")
	}
}
