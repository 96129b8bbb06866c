package extract

import (
	"regexp"
	"strings"

	"github.com/yourorg/botapigen/internal/document"
	"github.com/yourorg/botapigen/pkg/types"
)

var lineBreakRe = regexp.MustCompile(`(?:<br\s*/?>)+`)

// blocks classifies sibling nodes into descriptions. Unknown tags are reported
// and dropped; their siblings are still processed.
func (e *Extractor) blocks(nodes []*document.Node, r *reporter) []types.Description {
	var out []types.Description
	for _, n := range nodes {
		switch tag := document.Tag(n); tag {
		case "p":
			out = append(out, e.paragraphs(n)...)
		case "blockquote":
			out = append(out, types.Blockquote(e.blocks(document.Children(n), r)...))
		case "ul", "ol":
			out = append(out, e.list(n))
		default:
			r.anomaly(types.StructuralAnomaly, "unexpected tag %s, skipping: %s", tag, excerpt(n))
		}
	}
	return out
}

// paragraphs splits one node on runs of line breaks; a single source
// paragraph may hold several logical ones.
func (e *Extractor) paragraphs(n *document.Node) []types.Description {
	var out []types.Description
	for _, fragment := range lineBreakRe.Split(document.InnerHTML(n), -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		out = append(out, types.Paragraph(e.text.Text(fragment)))
	}
	return out
}

func (e *Extractor) list(n *document.Node) types.Description {
	items := []string{}
	for _, li := range document.Children(n, "li") {
		items = append(items, e.text.Text(strings.TrimSpace(document.InnerHTML(li))))
	}
	return types.List(items...)
}
