package helpers

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<aff id="a1"><sup>1</sup>Department of   Genetics,
		<institution>Harvard Medical School</institution>, Boston</aff>`))
	if err != nil {
		t.Fatal(err)
	}

	got := Text(doc.Find("aff"))
	want := "1Department of Genetics, Harvard Medical School, Boston"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	nodes := TextNodes(doc.Find("aff"))
	if len(nodes) != 4 || nodes[0] != "1" {
		t.Errorf("TextNodes() = %q", nodes)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a \t b\n", "a b"},
		{"a  b", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
