package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextSelector selects the elements whose text makes up a policy document.
const TextSelector = "p, li"

// ExtractionError is returned under strict extraction when a page yields no text.
type ExtractionError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error for %s: %s", e.URL, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ExtractText returns the text of every paragraph and list item in document order,
// joined by single spaces. Nested matches are included once per matching element.
// Markup without any such element, including malformed input, yields "".
func ExtractText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var blocks []string
	doc.Find(TextSelector).Each(func(_ int, s *goquery.Selection) {
		var parts []string
		for _, n := range s.Nodes {
			collectText(n, &parts)
		}
		if text := strings.Join(strings.Fields(strings.Join(parts, " ")), " "); text != "" {
			blocks = append(blocks, text)
		}
	})

	return strings.Join(blocks, " ")
}

// collectText appends the text nodes under n, skipping script and style bodies.
func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		*parts = append(*parts, n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
