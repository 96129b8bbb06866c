package document

import (
	"strings"

	"golang.org/x/net/html"
)

// html.Render escapes quotes in text and self-closes void elements, which would
// leak into generated comments. The serializer below follows the browser's
// innerHTML algorithm instead.

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

var rawTextElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "plaintext": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", `"`, "&quot;")
)

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c)
	}
	return b.String()
}

// OuterHTML serializes n itself.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if n.Parent != nil && n.Parent.Type == html.ElementNode && rawTextElements[n.Parent.Data] {
			b.WriteString(n.Data)
			return
		}
		b.WriteString(textEscaper.Replace(n.Data))
	case html.CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case html.DoctypeNode:
		b.WriteString("<!DOCTYPE ")
		b.WriteString(n.Data)
		b.WriteString(">")
	case html.ElementNode:
		b.WriteString("<")
		b.WriteString(n.Data)
		for _, a := range n.Attr {
			b.WriteString(" ")
			if a.Namespace != "" {
				b.WriteString(a.Namespace)
				b.WriteString(":")
			}
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(attrEscaper.Replace(a.Val))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		if voidElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteString(">")
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c)
		}
	}
}
