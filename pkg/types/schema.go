package types

// Field is one documented attribute of a type or one parameter of a method.
// IsRequired is nil when the source table has no required column.
type Field struct {
	Name        string        `json:"name" yaml:"name"`
	Type        string        `json:"type" yaml:"type"`
	IsRequired  *bool         `json:"isRequired,omitempty" yaml:"isRequired,omitempty"`
	Description []Description `json:"description,omitempty" yaml:"description,omitempty"`
}

// FieldOverride replaces individual attributes of an extracted field.
// Zero values mean "keep the extracted attribute".
type FieldOverride struct {
	Type        string        `json:"type,omitempty" yaml:"type,omitempty"`
	IsRequired  *bool         `json:"isRequired,omitempty" yaml:"isRequired,omitempty"`
	Description []Description `json:"description,omitempty" yaml:"description,omitempty"`
}

// Overrides maps field names to their overrides.
type Overrides map[string]FieldOverride

type DeclarationKind string

const (
	DeclarationUnion     DeclarationKind = "union"
	DeclarationInterface DeclarationKind = "interface"
)

// Declaration is an explicit body for a type or method that bypasses extraction.
type Declaration struct {
	Kind    DeclarationKind `json:"type" yaml:"type"`
	Members []string        `json:"members,omitempty" yaml:"members,omitempty"`
	Fields  []Field         `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// TypeSpec names a documented type to resolve.
type TypeSpec struct {
	Name        string       `json:"name" yaml:"name"`
	Declaration *Declaration `json:"declaration,omitempty" yaml:"declaration,omitempty"`
	Overrides   Overrides    `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// MethodSpec names a documented remote method. ReturnType is a type expression.
type MethodSpec struct {
	Name        string       `json:"name" yaml:"name"`
	ReturnType  string       `json:"type" yaml:"type"`
	Declaration *Declaration `json:"declaration,omitempty" yaml:"declaration,omitempty"`
	Overrides   Overrides    `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Catalogue is the declaration file: every type and method of interest, in output order.
type Catalogue struct {
	Types   []TypeSpec   `json:"types" yaml:"types"`
	Methods []MethodSpec `json:"methods" yaml:"methods"`
}

// Output is what extraction produced for one section.
// Fields is nil when the section has no field table.
type Output struct {
	Fields      []Field       `json:"fields,omitempty"`
	Description []Description `json:"description,omitempty"`
}

// ResolvedType pairs a TypeSpec with its extraction output.
type ResolvedType struct {
	Spec TypeSpec `json:"spec"`
	Output
}

// ResolvedMethod pairs a MethodSpec with its extraction output.
type ResolvedMethod struct {
	Spec MethodSpec `json:"spec"`
	Output
}

// Schema is the read-only result of one pipeline run, in catalogue order.
type Schema struct {
	Types       []ResolvedType   `json:"types"`
	Methods     []ResolvedMethod `json:"methods"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

type DiagnosticKind string

const (
	StructuralAnomaly    DiagnosticKind = "structural_anomaly"
	MissingSection       DiagnosticKind = "missing_section"
	ExtractionFailure    DiagnosticKind = "extraction_failure"
	TypeGrammarAmbiguity DiagnosticKind = "type_grammar_ambiguity"
)

// Diagnostic reports a recovered problem for one entity.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Entity  string         `json:"entity"`
	Message string         `json:"message"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
