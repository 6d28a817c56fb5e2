package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Plan describes the monthly batch covering one calendar month.
type Plan struct {
	// ID is "pmc{YYYY_MM}.{run date YYYY_MM_DD}"
	ID    string
	Start time.Time
	End   time.Time
}

// NewPlan returns the plan for yearMonth ("YYYY_MM") run on today.
func NewPlan(yearMonth string, today time.Time) (Plan, error) {
	start, err := time.Parse("2006_01", yearMonth)
	if err != nil {
		return Plan{}, fmt.Errorf("batch month %q is not YYYY_MM: %w", yearMonth, err)
	}
	end := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	return Plan{
		ID:    "pmc" + start.Format("2006_01") + "." + today.Format("2006_01_02"),
		Start: start,
		End:   end,
	}, nil
}

// HarvestURL returns the ListRecords request for the open-access set over
// the plan's month.
func (p Plan) HarvestURL(base string) string {
	params := [][2]string{
		{"verb", "ListRecords"},
		{"metadataPrefix", "pmc_fm"},
		{"from", p.Start.Format(time.DateOnly)},
		{"until", p.End.Format(time.DateOnly)},
		{"set", "pmc-open"},
	}

	var sb strings.Builder
	sb.WriteString(base)
	for i, kv := range params {
		if i == 0 {
			sb.WriteString("?")
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(kv[0])
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(kv[1]))
	}
	sb.WriteString("#")
	return sb.String()
}

// Commands returns the shell steps that harvest, ingest and ship the batch.
func (p Plan) Commands(dataDir, oaiURL, harvestCommand, rsyncTarget string) []string {
	layout := NewLayout(dataDir, p.ID)
	return []string{
		fmt.Sprintf("mkdir -p %s;", layout.OAIDir()),
		fmt.Sprintf("%s -u %q -d %q;", harvestCommand, p.HarvestURL(oaiURL), layout.OAIDir()),
		fmt.Sprintf("pmcdash ingest %s;", p.ID),
		fmt.Sprintf("rsync -avz %s %s/%s/;", layout.ImportDir(), strings.TrimSuffix(rsyncTarget, "/"), p.ID),
	}
}
