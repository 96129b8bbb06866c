// Package extract recovers descriptions and field tables from the reference page.
package extract

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/yourorg/botapigen/internal/document"
	"github.com/yourorg/botapigen/internal/markup"
	"github.com/yourorg/botapigen/pkg/types"
)

// ErrSectionNotFound is returned when no heading matches an entity name.
var ErrSectionNotFound = errors.New("section not found")

const headingTag = "h4"

var boundaryTags = map[string]bool{"h3": true, "h4": true, "hr": true}

// Extractor reads sections out of one parsed document. The document and the
// heading index are read-only, so Section may be called concurrently.
type Extractor struct {
	text     *markup.Normalizer
	headings map[string]*document.Node
}

// New indexes the entity headings of doc.
func New(doc *document.Node, text *markup.Normalizer) *Extractor {
	headings := make(map[string]*document.Node)
	for _, h := range document.Find(doc, func(n *document.Node) bool { return document.Tag(n) == headingTag }) {
		name := strings.TrimSpace(document.Text(h))
		if _, ok := headings[name]; !ok {
			headings[name] = h
		}
	}
	return &Extractor{text: text, headings: headings}
}

// Section returns the description and fields documented under the heading
// called name, along with the anomalies met on the way.
func (e *Extractor) Section(name string) (types.Output, []types.Diagnostic, error) {
	heading, ok := e.headings[name]
	if !ok {
		return types.Output{}, nil, errors.Wrapf(ErrSectionNotFound, "no %s heading for %q", headingTag, name)
	}

	r := &reporter{entity: name}
	var table *document.Node
	var blocks []*document.Node
	for _, n := range sectionNodes(heading) {
		if document.Tag(n) != "table" {
			blocks = append(blocks, n)
			continue
		}
		if table != nil {
			r.anomaly(types.StructuralAnomaly, "extra table in section, skipping: %s", excerpt(n))
			continue
		}
		table = n
	}

	out := types.Output{
		Fields:      e.fields(table, r),
		Description: e.blocks(blocks, r),
	}
	return out, r.diagnostics, nil
}

// sectionNodes returns the element siblings after heading up to the next
// heading or divider. Without a boundary the run extends to the last sibling.
func sectionNodes(heading *document.Node) []*document.Node {
	var out []*document.Node
	for n := document.NextElement(heading); n != nil; n = document.NextElement(n) {
		if boundaryTags[document.Tag(n)] {
			break
		}
		out = append(out, n)
	}
	return out
}

type reporter struct {
	entity      string
	diagnostics []types.Diagnostic
}

func (r *reporter) anomaly(kind types.DiagnosticKind, format string, args ...interface{}) {
	r.diagnostics = append(r.diagnostics, types.Diagnostic{
		Kind:    kind,
		Entity:  r.entity,
		Message: fmt.Sprintf(format, args...),
	})
}

func excerpt(n *document.Node) string {
	const limit = 120
	s := document.OuterHTML(n)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
