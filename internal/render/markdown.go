package render

import (
	"fmt"
	"strings"

	"github.com/yourorg/botapigen/pkg/types"
)

// Markdown renders a reference page with one section per type and method.
func Markdown(m Model, title string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# %s\n", title)

	if len(m.Types) > 0 {
		fmt.Fprintln(b, "\n## Types")
	}
	for _, d := range m.Types {
		fmt.Fprintf(b, "\n### %s\n", d.Name)
		writeDescription(b, d.Description)
		if d.Union != nil {
			fmt.Fprintf(b, "\n**One of:** %s\n", strings.Join(d.Union, " | "))
			continue
		}
		if len(d.Fields) > 0 {
			fmt.Fprintln(b, "\n#### Fields")
			b.WriteString(renderMembers(d.Fields))
		}
	}

	if len(m.Methods) > 0 {
		fmt.Fprintln(b, "\n## Methods")
	}
	for _, method := range m.Methods {
		fmt.Fprintf(b, "\n### %s\n", method.Name)
		writeDescription(b, method.Description)
		fmt.Fprintf(b, "\n**Returns:** `%s`\n", method.ReturnType)
		if method.Parameters != nil {
			fmt.Fprintf(b, "\n#### Parameters (`%s`)\n", method.Parameters.Name)
			b.WriteString(renderMembers(method.Parameters.Fields))
		}
	}
	return b.String()
}

func writeDescription(b *strings.Builder, desc []types.Description) {
	if len(desc) == 0 {
		return
	}
	b.WriteString("\n")
	for _, line := range DescriptionLines(desc) {
		b.WriteString(line + "\n")
	}
}

func renderMembers(members []Member) string {
	b := &strings.Builder{}
	for _, f := range members {
		req := "required"
		if f.Optional {
			req = "optional"
		}
		summary := ""
		if len(f.Description) > 0 && f.Description[0].Kind == types.DescriptionParagraph {
			summary = ": " + strings.ReplaceAll(f.Description[0].Content, "\n", " ")
		}
		fmt.Fprintf(b, "- %s (`%s`, %s)%s\n", f.Name, f.Type, req, summary)
	}
	return b.String()
}
