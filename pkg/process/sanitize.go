package process

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripTags removes markup from s and returns its text with runs of
// whitespace collapsed. Script and style bodies are dropped entirely.
func StripTags(s string) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for _, n := range nodes {
		extractTextNodes(n, &sb)
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

func extractTextNodes(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg":
			return
		}
	}

	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractTextNodes(c, sb)
	}
}

// SanitizeQuery turns raw user input into the search term: tags stripped,
// trimmed, and cut to at most maxLen runes.
func SanitizeQuery(raw string, maxLen int) string {
	q := StripTags(strings.TrimSpace(raw))
	if maxLen > 0 && utf8.RuneCountInString(q) > maxLen {
		q = string([]rune(q)[:maxLen])
	}
	return strings.TrimSpace(q)
}
