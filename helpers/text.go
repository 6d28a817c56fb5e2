package helpers

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var multiSpaceRegex = regexp.MustCompile(`[\s\x{85}\p{Z}]+`)

// CollapseWhitespace replaces every run of whitespace, including non-breaking
// spaces, with a single space.
func CollapseWhitespace(s string) string {
	return multiSpaceRegex.ReplaceAllString(s, " ")
}

// NormalizeWhitespace collapses whitespace and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(CollapseWhitespace(s))
}

// TextNodes returns the text nodes under the selection in document order.
func TextNodes(sel *goquery.Selection) []string {
	var texts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			texts = append(texts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return texts
}

// Text concatenates the text under the selection, collapsing whitespace
// inside each text node but not between nodes, so markup such as
// <sup>1</sup>Department stays joined.
func Text(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, t := range TextNodes(sel) {
		sb.WriteString(CollapseWhitespace(t))
	}
	return strings.TrimSpace(sb.String())
}
