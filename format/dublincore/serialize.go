package dublincore

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/osc-library/pmcdash/article"
	"github.com/osc-library/pmcdash/format"
)

// authorityConfidence is DSpace's "accepted" authority confidence.
const authorityConfidence = "600"

// Serialize writes the dc schema file to w and, when an ExtraWriters["dash"]
// writer is supplied, the dash schema file to it.
func (f *Format) Serialize(w io.Writer, a *article.Article, opts *format.SerializeOptions) error {
	if opts == nil {
		opts = format.NewSerializeOptions()
	}

	if err := writeRecord(w, DCRecord(a), opts.Pretty); err != nil {
		return fmt.Errorf("writing dc metadata for %s: %w", a, err)
	}

	if dash, ok := opts.ExtraWriters[DashWriter]; ok && dash != nil {
		if err := writeRecord(dash, DashRecord(a, opts.Batch), opts.Pretty); err != nil {
			return fmt.Errorf("writing dash metadata for %s: %w", a, err)
		}
	}
	return nil
}

func writeRecord(w io.Writer, rec *XMLRecord, pretty bool) error {
	var (
		output []byte
		err    error
	)
	if pretty {
		output, err = xml.MarshalIndent(rec, "", "  ")
	} else {
		output, err = xml.Marshal(rec)
	}
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", rec.Schema, err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(output); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// DCRecord builds the dc schema values for an article.
func DCRecord(a *article.Article) *XMLRecord {
	rec := &XMLRecord{Schema: "dc"}

	rec.Add("title", "", a.Title)
	for _, au := range a.Authors {
		v := XMLValue{Element: "contributor", Qualifier: "author", Value: au.InvertedName()}
		if au.Resolved() {
			v.Authority = au.IdentityAuthority
			v.Confidence = authorityConfidence
		}
		rec.Values = append(rec.Values, v)
	}
	rec.Add("date", "issued", a.Date)
	rec.Add("identifier", "citation", a.Citation)
	rec.Add("identifier", "doi", a.DOI)
	rec.Add("identifier", "issn", a.ISSN)
	rec.Add("publisher", "", a.Publisher)
	rec.Add("description", "abstract", a.Abstract)
	for _, s := range a.Subjects {
		rec.Add("subject", "", s)
	}
	rec.Add("type", "", a.Type)
	rec.Add("relation", "journal", a.Journal)
	rec.Add("description", "version", a.Version)
	rec.Add("relation", "hasversion", a.HasVersion)

	return rec
}

// DashRecord builds the local dash schema values for an article.
func DashRecord(a *article.Article, batch string) *XMLRecord {
	rec := &XMLRecord{Schema: "dash"}

	rec.Add("identifier", "pmcid", a.ExternalID)
	rec.Add("license", "", a.License)

	units := a.ResolvedUnits.Sorted()
	if len(units) == 0 {
		units = a.InstitutionUnits.NonEmpty()
	}
	for _, unit := range units {
		rec.Add("affiliation", "school", unit)
	}
	for _, dept := range a.InstitutionDepartments.NonEmpty() {
		rec.Add("affiliation", "department", dept)
	}
	rec.Add("source", "batch", batch)

	return rec
}

// XML types for DSpace metadata files.

// XMLRecord is the root element of a dublin_core.xml or metadata_<schema>.xml file.
type XMLRecord struct {
	XMLName xml.Name   `xml:"dublin_core"`
	Schema  string     `xml:"schema,attr"`
	Values  []XMLValue `xml:"dcvalue"`
}

// XMLValue is one metadata value. An unqualified element uses the
// qualifier "none".
type XMLValue struct {
	Element    string `xml:"element,attr"`
	Qualifier  string `xml:"qualifier,attr"`
	Language   string `xml:"language,attr,omitempty"`
	Authority  string `xml:"authority,attr,omitempty"`
	Confidence string `xml:"confidence,attr,omitempty"`
	Value      string `xml:",chardata"`
}

// Add appends a value unless it is empty.
func (r *XMLRecord) Add(element, qualifier, value string) {
	if value == "" {
		return
	}
	if qualifier == "" {
		qualifier = "none"
	}
	r.Values = append(r.Values, XMLValue{Element: element, Qualifier: qualifier, Value: value})
}

// Get returns the values of element.qualifier in order.
func (r *XMLRecord) Get(element, qualifier string) []string {
	if qualifier == "" {
		qualifier = "none"
	}
	var out []string
	for _, v := range r.Values {
		if v.Element == element && v.Qualifier == qualifier {
			out = append(out, v.Value)
		}
	}
	return out
}
