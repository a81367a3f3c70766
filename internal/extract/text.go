package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// hiddenClasses mark screen-reader-only text that duplicates what is shown
var hiddenClasses = []string{"visually-hidden", "a11y-text"}

// visibleText returns the whitespace-collapsed text of sel, skipping
// screen-reader-only subtrees.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		walkText(n, func(s string) bool {
			parts = append(parts, s)
			return true
		})
	}
	return strings.Join(parts, " ")
}

// firstVisibleText returns the first non-empty visible text node under sel.
func firstVisibleText(sel *goquery.Selection) string {
	var first string
	for _, n := range sel.Nodes {
		walkText(n, func(s string) bool {
			first = s
			return false
		})
		if first != "" {
			break
		}
	}
	return first
}

// walkText visits trimmed, non-empty text nodes in document order until fn
// returns false. It reports whether the walk should continue.
func walkText(n *html.Node, fn func(string) bool) bool {
	switch n.Type {
	case html.TextNode:
		text := collapse(n.Data)
		if text == "" {
			return true
		}
		return fn(text)
	case html.ElementNode:
		if isHidden(n) {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkText(c, fn) {
			return false
		}
	}
	return true
}

func isHidden(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "template", "noscript":
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(attr.Val) {
			for _, hidden := range hiddenClasses {
				if cls == hidden {
					return true
				}
			}
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
