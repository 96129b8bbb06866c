// Package render turns a resolved schema into TypeScript declarations and
// the other output formats.
package render

import (
	"strings"

	"github.com/samber/lo"

	"github.com/yourorg/botapigen/pkg/types"
)

const optionalMarker = "_Optional_"

// Member is a field after overrides have been applied.
type Member struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Optional    bool                `json:"optional"`
	Description []types.Description `json:"description,omitempty"`
}

// Declaration is one named type ready to print. Union is set for union
// declarations; everything else is an interface made of Fields.
type Declaration struct {
	Name        string              `json:"name"`
	Description []types.Description `json:"description,omitempty"`
	Union       []string            `json:"union,omitempty"`
	Fields      []Member            `json:"fields,omitempty"`
}

// Method is one abstract API method. Parameters is nil when the method takes none.
type Method struct {
	Name        string              `json:"name"`
	ReturnType  string              `json:"returnType"`
	Description []types.Description `json:"description,omitempty"`
	Parameters  *Declaration        `json:"parameters,omitempty"`
}

// ParametersOptional reports whether every parameter may be omitted.
func (m Method) ParametersOptional() bool {
	return m.Parameters != nil && lo.EveryBy(m.Parameters.Fields, func(f Member) bool { return f.Optional })
}

// Model is the schema with overrides merged, shared by every renderer.
type Model struct {
	Types   []Declaration `json:"types"`
	Methods []Method      `json:"methods"`
}

// Build merges declarations and overrides into printable declarations.
func Build(schema types.Schema) Model {
	return Model{
		Types:   lo.Map(schema.Types, func(t types.ResolvedType, _ int) Declaration { return typeDeclaration(t) }),
		Methods: lo.Map(schema.Methods, func(m types.ResolvedMethod, _ int) Method { return method(m) }),
	}
}

func typeDeclaration(t types.ResolvedType) Declaration {
	d := Declaration{Name: t.Spec.Name, Description: t.Description}
	decl := t.Spec.Declaration
	switch {
	case decl == nil:
		d.Fields = Members(t.Fields, t.Spec.Overrides)
	case decl.Kind == types.DeclarationUnion:
		d.Union = decl.Members
	default:
		d.Fields = Members(decl.Fields, t.Spec.Overrides)
	}
	return d
}

func method(m types.ResolvedMethod) Method {
	out := Method{Name: m.Spec.Name, ReturnType: m.Spec.ReturnType, Description: m.Description}
	fields := m.Fields
	if m.Spec.Declaration != nil {
		fields = m.Spec.Declaration.Fields
	}
	if len(fields) == 0 {
		return out
	}
	out.Parameters = &Declaration{
		Name:        ParametersName(m.Spec.Name),
		Description: []types.Description{types.Paragraph("`" + m.Spec.Name + "` parameters")},
		Fields:      Members(fields, m.Spec.Overrides),
	}
	return out
}

// ParametersName is the interface name for a method's parameters: sendMessage
// becomes SendMessageParameters.
func ParametersName(method string) string {
	if method == "" {
		return "Parameters"
	}
	return strings.ToUpper(method[:1]) + method[1:] + "Parameters"
}

// Members applies overrides to fields one attribute at a time.
func Members(fields []types.Field, overrides types.Overrides) []Member {
	out := make([]Member, 0, len(fields))
	for _, f := range fields {
		typ, required, desc := f.Type, f.IsRequired, f.Description
		if o, ok := overrides[f.Name]; ok {
			if o.Type != "" {
				typ = o.Type
			}
			if o.IsRequired != nil {
				required = o.IsRequired
			}
			if o.Description != nil {
				desc = o.Description
			}
		}
		out = append(out, Member{
			Name:        f.Name,
			Type:        typ,
			Optional:    (required != nil && !*required) || looksOptional(desc),
			Description: desc,
		})
	}
	return out
}

// looksOptional reports whether the leading paragraph marks the field optional.
// This is prose matching, so it can miss fields documented differently.
func looksOptional(desc []types.Description) bool {
	if len(desc) == 0 || desc[0].Kind != types.DescriptionParagraph {
		return false
	}
	return strings.Contains(desc[0].Content, optionalMarker)
}
