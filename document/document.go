// Package document normalizes raw scraped payloads into queryable form. An
// HTML payload becomes a goquery tree; a CSV payload becomes header-keyed
// records. Only input that cannot be parsed at all is an error here -
// missing or unexpected structure inside a valid document is for the
// discovery layer to cope with.
package document

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind declares how a raw payload should be normalized.
type Kind string

const (
	KindHTML Kind = "html"
	KindCSV  Kind = "csv"
)

// MalformedError reports input that could not be parsed as its declared
// kind. It aborts processing of that one document only.
type MalformedError struct {
	Kind Kind
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s document: %v", e.Kind, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Record is one CSV row keyed by trimmed header column name.
type Record map[string]string

// Document is a normalized source document. Exactly one of the underlying
// representations is populated, selected by Kind.
type Document struct {
	kind Kind
	html *goquery.Document
	csv  []Record
}

// Parse normalizes raw bytes according to the declared kind.
func Parse(data []byte, kind Kind) (*Document, error) {
	switch kind {
	case KindHTML:
		return parseHTML(data)
	case KindCSV:
		return parseCSV(data)
	default:
		return nil, &MalformedError{Kind: kind, Err: fmt.Errorf("unsupported document kind %q", kind)}
	}
}

func parseHTML(data []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedError{Kind: KindHTML, Err: err}
	}
	return &Document{kind: KindHTML, html: doc}, nil
}

func parseCSV(data []byte) (*Document, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	// The download endpoint pads some rows short; tolerate ragged rows.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &MalformedError{Kind: KindCSV, Err: err}
	}
	if len(rows) == 0 {
		return &Document{kind: KindCSV}, nil
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, rec)
	}
	return &Document{kind: KindCSV, csv: records}, nil
}

// Kind reports how the document was normalized.
func (d *Document) Kind() Kind { return d.kind }

// HTML returns the parsed tree, or nil for non-HTML documents.
func (d *Document) HTML() *goquery.Document {
	if d == nil {
		return nil
	}
	return d.html
}

// Records returns the CSV rows, or nil for non-CSV documents.
func (d *Document) Records() []Record {
	if d == nil {
		return nil
	}
	return d.csv
}
