package typeexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"String":                                      "string",
		"Boolean":                                     "boolean",
		"True":                                        "true",
		"Integer":                                     "number",
		"Float":                                       "number",
		"Float number":                                "number",
		"Array of String":                             "string[]",
		"Integer or String":                           "number | string",
		"InputFile or String":                         "InputFile | string",
		"Array of Array of PhotoSize":                 "PhotoSize[][]",
		`<a href="#user">User</a>`:                    "User",
		`Array of <a href="#photosize">PhotoSize</a>`: "PhotoSize[]",
		"A or B or C":                                 "A | B | C",
		"Array of Integer or String":                  "(number | string)[]",
		"Integer or Array of String":                  "number | string[]",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Normalize(in))
		})
	}
}

func TestNormalizeIdempotentForPlainPhrases(t *testing.T) {
	for _, phrase := range []string{"String", "Integer", "True", "Boolean", "Message", "Float number", `<a href="#chat">Chat</a>`} {
		once := Normalize(phrase)
		assert.Equal(t, once, Normalize(once), phrase)
	}
}

func TestAmbiguous(t *testing.T) {
	assert.True(t, Ambiguous("Array of Integer or String"))
	assert.True(t, Ambiguous("Integer or Array of String"))
	assert.False(t, Ambiguous("Integer or String"))
	assert.False(t, Ambiguous("Array of String"))
}

func TestParse(t *testing.T) {
	t.Run("round trips normalized expressions", func(t *testing.T) {
		for _, expr := range []string{
			"string",
			"number | string",
			"PhotoSize[][]",
			"(number | string)[]",
			"number | string[]",
			`"private" | "group"`,
		} {
			e, err := Parse(expr)
			require.NoError(t, err, expr)
			assert.Equal(t, expr, e.String())
		}
	})

	t.Run("structure", func(t *testing.T) {
		e, err := Parse("(number | string)[]")
		require.NoError(t, err)
		require.Equal(t, Array, e.Kind)
		require.Equal(t, Union, e.Elem.Kind)
		assert.Len(t, e.Elem.Members, 2)
	})

	t.Run("errors", func(t *testing.T) {
		for _, expr := range []string{"", "(a | b", "a |", "a ]", `"open`} {
			_, err := Parse(expr)
			assert.Error(t, err, expr)
		}
	})
}
