package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Row is one author line of a written report.
type Row struct {
	ExternalID     string
	Handle         string
	Title          string
	AuthorFirst    string
	AuthorLast     string
	CandidateCount int
	BestLabel      string
	BestConfidence float64
}

// Report is a decoded author report.
type Report struct {
	Batch     string
	RunID     string
	Timestamp string
	Rows      []Row
}

// ReadJSON decodes a report written by Audit.WriteJSON.
func ReadJSON(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var doc structpb.Struct
	if err := protojson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	fields := doc.GetFields()
	rep := &Report{
		Batch:     fields["batch"].GetStringValue(),
		RunID:     fields["runId"].GetStringValue(),
		Timestamp: fields["timestamp"].GetStringValue(),
	}
	for i, v := range fields["data"].GetListValue().GetValues() {
		row := v.GetStructValue()
		if row == nil {
			return nil, fmt.Errorf("report row %d is not an object", i)
		}
		f := row.GetFields()
		rep.Rows = append(rep.Rows, Row{
			ExternalID:     f["externalId"].GetStringValue(),
			Handle:         f["handle"].GetStringValue(),
			Title:          f["title"].GetStringValue(),
			AuthorFirst:    f["authorFirst"].GetStringValue(),
			AuthorLast:     f["authorLast"].GetStringValue(),
			CandidateCount: int(f["candidateCount"].GetNumberValue()),
			BestLabel:      f["bestLabel"].GetStringValue(),
			BestConfidence: f["bestConfidence"].GetNumberValue(),
		})
	}
	return rep, nil
}

// Matched returns the number of rows with a selected identity.
func (r *Report) Matched() int {
	n := 0
	for _, row := range r.Rows {
		if row.BestLabel != NoMatchLabel {
			n++
		}
	}
	return n
}

// WriteTable writes one aligned line per row. Titles are cut to titleWidth
// display columns; zero omits the title column.
func (r *Report) WriteTable(w io.Writer, titleWidth int) error {
	header := []string{"PMCID", "AUTHOR", "CANDIDATES", "BEST MATCH", "CONFIDENCE"}
	if titleWidth > 0 {
		header = append(header, "TITLE")
	}
	lines := [][]string{header}
	for _, row := range r.Rows {
		author := row.AuthorLast
		if row.AuthorFirst != "" {
			author += ", " + row.AuthorFirst
		}
		line := []string{
			row.ExternalID,
			author,
			strconv.Itoa(row.CandidateCount),
			row.BestLabel,
			strconv.FormatFloat(row.BestConfidence, 'f', 2, 64),
		}
		if titleWidth > 0 {
			line = append(line, runewidth.Truncate(row.Title, titleWidth, "..."))
		}
		lines = append(lines, line)
	}

	widths := make([]int, len(header))
	for _, line := range lines {
		for i, cell := range line {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	for _, line := range lines {
		for i, cell := range line {
			if i == len(line)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
