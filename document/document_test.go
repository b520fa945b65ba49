package document

import (
	"errors"
	"testing"
)

func TestParseHTML(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><table class="ranking"><tr><td>x</td></tr></table></body></html>`), KindHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Kind() != KindHTML {
		t.Fatalf("kind = %q, want html", doc.Kind())
	}
	if doc.HTML() == nil {
		t.Fatal("expected HTML tree")
	}
	if doc.HTML().Find("table.ranking").Length() != 1 {
		t.Fatal("expected to find the ranking table")
	}
	if doc.Records() != nil {
		t.Fatal("HTML document must not expose CSV records")
	}
}

// The HTML5 parser repairs almost anything, so even truncated markup is not
// an error at this layer.
func TestParseHTMLTolerant(t *testing.T) {
	if _, err := Parse([]byte(`<table><tr><td>unclosed`), KindHTML); err != nil {
		t.Fatalf("truncated markup should still normalize: %v", err)
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("Symbol,Order Date/Time,Type,Amount\nAAPL,7/9/25 10:45a ET,Buy,100\nTSLA,7/8/25 9:00a ET,Sell,\n")
	doc, err := Parse(data, KindCSV)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	records := doc.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["Symbol"] != "AAPL" || records[0]["Amount"] != "100" {
		t.Fatalf("unexpected first record: %v", records[0])
	}
	if records[1]["Amount"] != "" {
		t.Fatalf("expected empty amount, got %q", records[1]["Amount"])
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	data := []byte("Symbol,Type,Amount\nAAPL,Buy\n")
	doc, err := Parse(data, KindCSV)
	if err != nil {
		t.Fatalf("ragged rows should not fail: %v", err)
	}
	if got := doc.Records()[0]["Amount"]; got != "" {
		t.Fatalf("missing column should read empty, got %q", got)
	}
}

func TestParseCSVMalformed(t *testing.T) {
	_, err := Parse([]byte("Symbol,Type\n\"AAPL,Buy\n"), KindCSV)
	if err == nil {
		t.Fatal("expected error for unterminated quote")
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %T", err)
	}
	if malformed.Kind != KindCSV {
		t.Fatalf("kind = %q, want csv", malformed.Kind)
	}
}

func TestParseUnsupportedKind(t *testing.T) {
	_, err := Parse([]byte("x"), Kind("pdf"))
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	doc, err := Parse(nil, KindCSV)
	if err != nil {
		t.Fatalf("empty input should normalize to zero records: %v", err)
	}
	if len(doc.Records()) != 0 {
		t.Fatalf("expected no records, got %d", len(doc.Records()))
	}
}
