// Package typeexpr converts the reference's type phrases ("Array of Integer",
// "InputFile or String") into type expressions ("number[]", "InputFile | string")
// and reads those expressions back into a small AST.
package typeexpr

import (
	"regexp"
	"strings"
)

const (
	sequencePrefix = "Array of "
	alternation    = " or "
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

var scalarAliases = map[string]string{
	"String":       "string",
	"Boolean":      "boolean",
	"True":         "true",
	"Integer":      "number",
	"Float":        "number",
	"Float number": "number",
}

// Normalize converts a documentation type phrase into a type expression.
// Rules apply in order: a leading "Array of " wraps the normalized remainder
// as an array, " or " splits into alternatives, anything else is a scalar alias
// or an opaque type name with markup removed.
func Normalize(phrase string) string {
	if strings.HasPrefix(phrase, sequencePrefix) {
		elem := Normalize(strings.TrimPrefix(phrase, sequencePrefix))
		if strings.Contains(elem, " | ") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	}
	if strings.Contains(phrase, alternation) {
		parts := strings.Split(phrase, alternation)
		for i, part := range parts {
			parts[i] = Normalize(part)
		}
		return strings.Join(parts, " | ")
	}
	return scalar(phrase)
}

func scalar(phrase string) string {
	name := strings.TrimSpace(tagRe.ReplaceAllString(phrase, ""))
	if alias, ok := scalarAliases[name]; ok {
		return alias
	}
	return name
}

// Ambiguous reports whether phrase mixes the array prefix with alternation,
// where the reference's wording does not pin down the nesting.
func Ambiguous(phrase string) bool {
	if !strings.Contains(phrase, alternation) {
		return false
	}
	if strings.HasPrefix(phrase, sequencePrefix) {
		return true
	}
	for _, part := range strings.Split(phrase, alternation) {
		if strings.HasPrefix(part, sequencePrefix) {
			return true
		}
	}
	return false
}
