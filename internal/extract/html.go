package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// FlattenHTML converts an HTML page into plain lines: one per table row, list item
// or text block. Cells within a row are joined with " | ".
func FlattenHTML(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "td", "th":
				if strings.TrimSpace(current.String()) != "" {
					current.WriteString(" | ")
				}
			}
		}

		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isLineBreaking(n.Data) {
			flush()
		}
	}

	walk(doc)
	flush()

	return strings.Join(lines, "\n"), nil
}

func isLineBreaking(tag string) bool {
	switch tag {
	case "tr", "p", "div", "li", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "caption", "pre", "section", "article":
		return true
	}
	return false
}
