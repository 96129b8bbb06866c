package extract

import (
	"strings"

	"github.com/yourorg/botapigen/internal/document"
	"github.com/yourorg/botapigen/internal/typeexpr"
	"github.com/yourorg/botapigen/pkg/types"
)

const requiredMarker = "Yes"

// fields reads one field per table row. It returns nil when there is no table.
// Rows with three cells have no required column and leave IsRequired nil.
func (e *Extractor) fields(table *document.Node, r *reporter) []types.Field {
	if table == nil {
		return nil
	}
	out := []types.Field{}
	seen := make(map[string]bool)
	for _, row := range document.ChildPath(table, "tbody", "tr") {
		cells := document.Children(row, "td")
		switch len(cells) {
		case 4:
		case 3:
			cells = []*document.Node{cells[0], cells[1], nil, cells[2]}
		default:
			r.anomaly(types.StructuralAnomaly, "field row with %d cells, skipping: %s", len(cells), excerpt(row))
			continue
		}

		name := strings.TrimSpace(document.Text(cells[0]))
		if seen[name] {
			r.anomaly(types.StructuralAnomaly, "duplicate field %q, skipping", name)
			continue
		}
		seen[name] = true

		phrase := strings.TrimSpace(document.InnerHTML(cells[1]))
		if typeexpr.Ambiguous(phrase) {
			r.anomaly(types.TypeGrammarAmbiguity, "field %q: type phrase %q nests arrays and alternatives", name, phrase)
		}

		field := types.Field{
			Name:        name,
			Type:        typeexpr.Normalize(phrase),
			Description: e.paragraphs(cells[3]),
		}
		if cells[2] != nil {
			field.IsRequired = types.Bool(strings.TrimSpace(document.InnerHTML(cells[2])) == requiredMarker)
		}
		if field.Description == nil {
			field.Description = []types.Description{}
		}
		out = append(out, field)
	}
	return out
}
