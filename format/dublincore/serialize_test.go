package dublincore

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/format"
)

func sampleArticle() *article.Article {
	a := article.New()
	a.Title = "Mapping anhedonia onto reinforcement learning"
	a.Journal = "Biol Mood Anxiety Disord"
	a.ExternalID = "3668000"
	a.DOI = "10.1186/2045-5380-3-12"
	a.ISSN = "2045-5380"
	a.Publisher = "BioMed Central"
	a.Date = "2013"
	a.Abstract = "Background: Anhedonia & reward."
	a.Subjects = []string{"anhedonia", "reward"}
	a.License = "LAA"
	a.Citation = "Huys, Quentin JM. 2013. Mapping anhedonia."
	a.HasVersion = "http://www.ncbi.nlm.nih.gov/pmc/articles/PMC3668000/"

	resolved := article.NewAuthor("Pizzagalli", "Diego A")
	resolved.IdentityAuthority = "12345"
	a.Authors = []*article.Author{
		article.NewAuthor("Huys", "Quentin JM"),
		resolved,
		article.NewAuthor("Consortium", ""),
	}
	a.InstitutionUnits.Add("FAS")
	a.ResolvedUnits.Add("HMS")
	a.InstitutionDepartments.Add("Psychology")
	return a
}

func TestDCRecord(t *testing.T) {
	rec := DCRecord(sampleArticle())

	if rec.Schema != "dc" {
		t.Errorf("schema = %q", rec.Schema)
	}
	authors := rec.Get("contributor", "author")
	want := []string{"Huys, Quentin JM", "Pizzagalli, Diego A", "Consortium"}
	if strings.Join(authors, "|") != strings.Join(want, "|") {
		t.Errorf("authors = %v, want %v", authors, want)
	}
	if got := rec.Get("subject", ""); len(got) != 2 {
		t.Errorf("subjects = %v", got)
	}
	if got := rec.Get("type", "none"); len(got) != 1 || got[0] != article.TypeJournalArticle {
		t.Errorf("type = %v", got)
	}
	if got := rec.Get("identifier", "doi"); len(got) != 1 || got[0] != "10.1186/2045-5380-3-12" {
		t.Errorf("doi = %v", got)
	}
	// Empty fields are omitted
	if got := rec.Get("identifier", "issue"); got != nil {
		t.Errorf("unexpected values %v", got)
	}

	var authority []XMLValue
	for _, v := range rec.Values {
		if v.Authority != "" {
			authority = append(authority, v)
		}
	}
	if len(authority) != 1 || authority[0].Authority != "12345" || authority[0].Confidence != authorityConfidence {
		t.Errorf("authority values = %+v", authority)
	}
}

func TestDashRecord(t *testing.T) {
	a := sampleArticle()
	rec := DashRecord(a, "pmc2013_05.2013_06_01")

	if got := rec.Get("identifier", "pmcid"); len(got) != 1 || got[0] != "3668000" {
		t.Errorf("pmcid = %v", got)
	}
	if got := rec.Get("affiliation", "school"); len(got) != 1 || got[0] != "HMS" {
		t.Errorf("schools = %v, want resolved units", got)
	}
	if got := rec.Get("source", "batch"); len(got) != 1 || got[0] != "pmc2013_05.2013_06_01" {
		t.Errorf("batch = %v", got)
	}

	a.ResolvedUnits = article.UnitSet{}
	rec = DashRecord(a, "")
	if got := rec.Get("affiliation", "school"); len(got) != 1 || got[0] != "FAS" {
		t.Errorf("schools = %v, want classifier units", got)
	}
	if got := rec.Get("source", "batch"); got != nil {
		t.Errorf("empty batch should be omitted, got %v", got)
	}
}

func TestSerialize(t *testing.T) {
	var dc, dash bytes.Buffer
	opts := format.NewSerializeOptions()
	opts.Batch = "b1"
	opts.ExtraWriters[DashWriter] = &dash

	if err := (&Format{}).Serialize(&dc, sampleArticle(), opts); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}

	out := dc.String()
	if !strings.HasPrefix(out, xml.Header) {
		t.Error("missing XML header")
	}
	for _, want := range []string{
		`<dublin_core schema="dc">`,
		`<dcvalue element="title" qualifier="none">Mapping anhedonia onto reinforcement learning</dcvalue>`,
		`authority="12345" confidence="600"`,
		`Anhedonia &amp; reward.`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dc output missing %q\n%s", want, out)
		}
	}
	if !strings.Contains(dash.String(), `<dublin_core schema="dash">`) {
		t.Errorf("dash output = %s", dash.String())
	}

	var rec XMLRecord
	if err := xml.Unmarshal(dc.Bytes()[len(xml.Header):], &rec); err != nil {
		t.Fatalf("output does not unmarshal: %v", err)
	}
	if len(rec.Get("contributor", "author")) != 3 {
		t.Errorf("round trip authors = %v", rec.Get("contributor", "author"))
	}
}

func TestSerializeWithoutDashWriter(t *testing.T) {
	var dc bytes.Buffer
	if err := (&Format{}).Serialize(&dc, sampleArticle(), nil); err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if dc.Len() == 0 {
		t.Error("no output")
	}
}

func TestCanParse(t *testing.T) {
	f := &Format{}
	if !f.CanParse([]byte(`<dublin_core schema="dc"><dcvalue element="title">x</dcvalue></dublin_core>`)) {
		t.Error("expected dublin_core input to be recognized")
	}
	if f.CanParse([]byte(`{"title":"x"}`)) {
		t.Error("JSON should not be recognized")
	}
}
