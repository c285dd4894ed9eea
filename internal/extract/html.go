package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// wikiContentID is the element holding an article body on MediaWiki pages.
const wikiContentID = "mw-content-text"

var skippedElements = map[string]bool{"script": true, "style": true, "noscript": true, "head": true}

// extractHTML returns the page title and visible text. On MediaWiki pages only
// the article body is used so navigation and sidebars do not count as content.
func extractHTML(content []byte) (*Content, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	root := doc
	if body := findByID(doc, wikiContentID); body != nil {
		root = body
	}
	var b strings.Builder
	appendText(&b, root)
	return &Content{
		Title: findTitle(doc),
		Text:  strings.Join(strings.Fields(b.String()), " "),
	}, nil
}

func appendText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(b, c)
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
