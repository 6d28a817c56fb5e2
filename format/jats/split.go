package jats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/osc-library/pmcdash/format"
)

// XMLRecord is one OAI-PMH record. Element names are matched without regard
// to namespace, since PMC has moved its namespaces more than once.
type XMLRecord struct {
	Header struct {
		Status     string `xml:"status,attr"`
		Identifier string `xml:"identifier"`
	} `xml:"header"`
	Metadata struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"metadata"`
}

// Split reads an OAI-PMH ListRecords or GetRecord page, or a bare JATS
// article, and returns its records.
func (f *Format) Split(r io.Reader) ([]format.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false

	var records []format.Record
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "record":
			var rec XMLRecord
			if err := decoder.DecodeElement(&rec, &start); err != nil {
				return nil, fmt.Errorf("decoding record %d: %w", len(records)+1, err)
			}
			records = append(records, format.Record{
				Identifier: rec.Header.Identifier,
				Deleted:    rec.Header.Status == "deleted",
				Data:       bytes.TrimSpace(rec.Metadata.Inner),
			})
		case "article":
			// a bare article document
			var inner struct {
				Inner []byte `xml:",innerxml"`
			}
			if err := decoder.DecodeElement(&inner, &start); err != nil {
				return nil, fmt.Errorf("decoding article: %w", err)
			}
			var buf bytes.Buffer
			buf.WriteString("<article>")
			buf.Write(inner.Inner)
			buf.WriteString("</article>")
			records = append(records, format.Record{Data: buf.Bytes()})
		}
	}

	return records, nil
}
