package document

import (
	"bytes"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractHTML extracts readable text from an HTML file. Headings are kept on
// their own lines (prefixed with markdown-style hashes) so heading-aware
// splitters can use them; script, style, and navigation chrome are dropped.
func extractHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	walkHTML(doc, &sb)
	return strings.TrimSpace(sb.String()), nil
}

func walkHTML(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head, atom.Nav, atom.Footer:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			text := collectText(n)
			if text != "" {
				level := int(n.Data[1] - '0')
				sb.WriteString("\n\n")
				sb.WriteString(strings.Repeat("#", level))
				sb.WriteByte(' ')
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
			return
		case atom.P, atom.Li, atom.Td, atom.Th, atom.Blockquote, atom.Pre:
			text := collectText(n)
			if text != "" {
				sb.WriteByte('\n')
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
			return
		case atom.Br:
			sb.WriteByte('\n')
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, sb)
	}
}

// collectText gathers all text under a node, collapsing internal whitespace.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
