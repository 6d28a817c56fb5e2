package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestNewPlan(t *testing.T) {
	today := time.Date(2014, time.May, 9, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		month string
		id    string
		start string
		end   string
	}{
		{"2014_04", "pmc2014_04.2014_05_09", "2014-04-01", "2014-04-30"},
		{"2012_02", "pmc2012_02.2014_05_09", "2012-02-01", "2012-02-29"},
		{"2013_02", "pmc2013_02.2014_05_09", "2013-02-01", "2013-02-28"},
		{"2013_12", "pmc2013_12.2014_05_09", "2013-12-01", "2013-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			p, err := NewPlan(tt.month, today)
			if err != nil {
				t.Fatalf("NewPlan() error: %v", err)
			}
			if p.ID != tt.id {
				t.Errorf("ID = %q, want %q", p.ID, tt.id)
			}
			if got := p.Start.Format(time.DateOnly); got != tt.start {
				t.Errorf("Start = %s, want %s", got, tt.start)
			}
			if got := p.End.Format(time.DateOnly); got != tt.end {
				t.Errorf("End = %s, want %s", got, tt.end)
			}
		})
	}
}

func TestNewPlanInvalid(t *testing.T) {
	for _, month := range []string{"", "2014-04", "2014_13", "14_04", "2014_4"} {
		if _, err := NewPlan(month, time.Now()); err == nil {
			t.Errorf("NewPlan(%q) should fail", month)
		}
	}
}

func TestPlanHarvestURL(t *testing.T) {
	p, err := NewPlan("2014_04", time.Date(2014, time.May, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	want := "http://www.ncbi.nlm.nih.gov/pmc/oai/oai.cgi?verb=ListRecords&metadataPrefix=pmc_fm&from=2014-04-01&until=2014-04-30&set=pmc-open#"
	if got := p.HarvestURL("http://www.ncbi.nlm.nih.gov/pmc/oai/oai.cgi"); got != want {
		t.Errorf("HarvestURL() =\n%s\nwant\n%s", got, want)
	}
}

func TestPlanCommands(t *testing.T) {
	p, err := NewPlan("2014_04", time.Date(2014, time.May, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	cmds := p.Commands("/home/osc/proj/pmc/data", "http://oai.test/oai.cgi", "oai-harvest", "dspace@archive.test:/import/")

	if len(cmds) != 4 {
		t.Fatalf("got %d commands", len(cmds))
	}
	want := []string{
		"mkdir -p /home/osc/proj/pmc/data/batch/pmc2014_04.2014_05_09/oai;",
		`oai-harvest -u "http://oai.test/oai.cgi?verb=ListRecords&metadataPrefix=pmc_fm&from=2014-04-01&until=2014-04-30&set=pmc-open#" -d "/home/osc/proj/pmc/data/batch/pmc2014_04.2014_05_09/oai";`,
		"pmcdash ingest pmc2014_04.2014_05_09;",
		"rsync -avz /home/osc/proj/pmc/data/batch/pmc2014_04.2014_05_09/import dspace@archive.test:/import/pmc2014_04.2014_05_09/;",
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d:\n got %s\nwant %s", i, cmds[i], want[i])
		}
	}
	if !strings.HasSuffix(cmds[3], "/;") {
		t.Error("rsync target should end with a slash")
	}
}
