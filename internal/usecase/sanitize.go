package usecase

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PlainText strips markup from a source description. The destination's
// description field is a plain textarea; rich formatting would render as
// literal tags, so everything but text content is dropped and whitespace is
// collapsed. Element boundaries become single spaces so adjacent paragraphs
// do not run together.
func PlainText(raw string) string {
	if !strings.ContainsAny(raw, "<>") {
		return collapseWhitespace(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		// Unparseable input is left as-is rather than lost.
		return collapseWhitespace(raw)
	}
	doc.Find("script,style").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}
	return collapseWhitespace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
