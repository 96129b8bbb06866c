// Package document wraps a parsed HTML tree with the queries the extractor needs.
// Trees are never mutated after Parse, so they can be read from many goroutines.
package document

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// Node is a handle into a parsed tree.
type Node = html.Node

var ErrNotFound = errors.New("element not found")

// Parse parses a full page or a content fragment.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// Tag returns the element's tag name, or "" for non-element nodes.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// Children returns the element children of n, optionally restricted to tags.
func Children(n *html.Node, tags ...string) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if len(tags) == 0 || hasTag(c, tags) {
			out = append(out, c)
		}
	}
	return out
}

// ChildPath follows a relative element path, one tag per step,
// e.g. ChildPath(table, "tbody", "tr").
func ChildPath(n *html.Node, path ...string) []*html.Node {
	current := []*html.Node{n}
	for _, step := range path {
		var next []*html.Node
		for _, c := range current {
			next = append(next, Children(c, step)...)
		}
		current = next
	}
	return current
}

// NextElement returns the next element sibling of n.
func NextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Find returns every node under root, root included, for which match is true, in document order.
func Find(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// FindByID returns the first element whose id attribute equals id.
func FindByID(root *html.Node, id string) (*html.Node, error) {
	found := Find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
	if len(found) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "element with id '%s'", id)
	}
	return found[0], nil
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasTag(n *html.Node, tags []string) bool {
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}
