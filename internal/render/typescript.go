package render

import (
	"fmt"
	"strings"

	"github.com/yourorg/botapigen/pkg/types"
)

// DefaultClassName names the abstract class holding every method signature.
const DefaultClassName = "AbstractApi"

// TypeScript prints every type, then the parameters interfaces, then the
// abstract API class, separated by blank lines.
func TypeScript(m Model, className string) string {
	if className == "" {
		className = DefaultClassName
	}
	blocks := make([]string, 0, len(m.Types)+len(m.Methods)+1)
	for _, d := range m.Types {
		blocks = append(blocks, declaration(d))
	}
	for _, method := range m.Methods {
		if method.Parameters != nil {
			blocks = append(blocks, declaration(*method.Parameters))
		}
	}
	blocks = append(blocks, class(className, m.Methods))
	return strings.Join(blocks, "\n")
}

func declaration(d Declaration) string {
	b := &strings.Builder{}
	b.WriteString(docComment(d.Description, 0))
	if d.Union != nil {
		fmt.Fprintf(b, "export type %s = %s;\n", d.Name, strings.Join(d.Union, " | "))
		return b.String()
	}
	fmt.Fprintf(b, "export interface %s {\n", d.Name)
	for i, f := range d.Fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(docComment(f.Description, 1))
		optional := ""
		if f.Optional {
			optional = "?"
		}
		fmt.Fprintf(b, "\t%s%s: %s;\n", f.Name, optional, f.Type)
	}
	b.WriteString("}\n")
	return b.String()
}

func class(name string, methods []Method) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "export default abstract class %s {\n", name)
	for i, m := range methods {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(docComment(m.Description, 1))
		params := ""
		switch {
		case m.ParametersOptional():
			params = "parameters?: " + m.Parameters.Name
		case m.Parameters != nil:
			params = "parameters: " + m.Parameters.Name
		}
		fmt.Fprintf(b, "\tabstract %s(%s): Promise<%s>;\n", m.Name, params, m.ReturnType)
	}
	b.WriteString("}\n")
	return b.String()
}

func docComment(desc []types.Description, indent int) string {
	if len(desc) == 0 {
		return ""
	}
	prefix := strings.Repeat("\t", indent)
	b := &strings.Builder{}
	b.WriteString(prefix + "/**\n")
	for _, line := range DescriptionLines(desc) {
		if line == "" {
			b.WriteString(prefix + " *\n")
			continue
		}
		b.WriteString(prefix + " * " + line + "\n")
	}
	b.WriteString(prefix + " */\n")
	return b.String()
}

// DescriptionLines flattens blocks to text lines. Quotes prefix each line
// with "> ", list items get "- ", and an empty line separates top-level blocks.
func DescriptionLines(desc []types.Description) []string {
	var lines []string
	for i, d := range desc {
		switch d.Kind {
		case types.DescriptionParagraph:
			lines = append(lines, strings.Split(d.Content, "\n")...)
		case types.DescriptionBlockquote:
			for _, line := range DescriptionLines(d.Blocks) {
				if line == "" {
					lines = append(lines, ">")
				} else {
					lines = append(lines, "> "+line)
				}
			}
		case types.DescriptionList:
			for _, item := range d.Items {
				lines = append(lines, "- "+item)
			}
		}
		if i < len(desc)-1 {
			lines = append(lines, "")
		}
	}
	return lines
}
