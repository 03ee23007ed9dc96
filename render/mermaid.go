package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rewriteMermaid converts goldmark's <pre><code class="language-mermaid">
// listings into <pre class="mermaid"> elements holding the raw diagram
// text, which is what mermaid.js renders in the browser. The second
// return value reports whether any diagram was found.
func rewriteMermaid(fragment string) (string, bool) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment, false
	}

	found := false
	for _, n := range nodes {
		walk(n, &found)
	}
	if !found {
		return fragment, false
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return fragment, false
		}
	}
	return b.String(), true
}

func walk(n *html.Node, found *bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Pre {
		if code := mermaidCode(n); code != nil {
			*found = true
			rewriteNode(n, code)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, found)
	}
}

// mermaidCode returns the <code class="language-mermaid"> child of a
// <pre>, or nil when the listing is not a diagram.
func mermaidCode(pre *html.Node) *html.Node {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Code {
			continue
		}
		for _, attr := range c.Attr {
			if attr.Key == "class" && strings.Contains(attr.Val, "language-mermaid") {
				return c
			}
		}
	}
	return nil
}

// rewriteNode replaces the pre's children with the diagram text and
// tags the element for the mermaid runtime.
func rewriteNode(pre, code *html.Node) {
	text := textContent(code)
	for pre.FirstChild != nil {
		pre.RemoveChild(pre.FirstChild)
	}
	pre.Attr = []html.Attribute{{Key: "class", Val: "mermaid"}}
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
