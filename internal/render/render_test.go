package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/botapigen/pkg/types"
)

func sampleSchema() types.Schema {
	return types.Schema{
		Types: []types.ResolvedType{
			{
				Spec: types.TypeSpec{Name: "Update"},
				Output: types.Output{
					Description: []types.Description{types.Paragraph("This represents an update."), types.Paragraph("At most **one**.")},
					Fields: []types.Field{
						{Name: "update_id", Type: "number", Description: []types.Description{types.Paragraph("The id.")}},
						{Name: "message", Type: "Message", Description: []types.Description{types.Paragraph("_Optional_. New message")}},
					},
				},
			},
			{
				Spec: types.TypeSpec{Name: "ChatId", Declaration: &types.Declaration{
					Kind:    types.DeclarationUnion,
					Members: []string{"number", "string"},
				}},
			},
		},
		Methods: []types.ResolvedMethod{
			{
				Spec: types.MethodSpec{Name: "getUpdates", ReturnType: "Update[]"},
				Output: types.Output{
					Description: []types.Description{types.Paragraph("Receive updates.")},
					Fields: []types.Field{
						{Name: "offset", Type: "number", IsRequired: types.Bool(false), Description: []types.Description{types.Paragraph("First id.")}},
					},
				},
			},
			{
				Spec: types.MethodSpec{Name: "getMe", ReturnType: "User"},
				Output: types.Output{
					Description: []types.Description{types.Paragraph("Test token.")},
				},
			},
		},
	}
}

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

func TestTypeScript(t *testing.T) {
	want := lines(
		"/**",
		" * This represents an update.",
		" *",
		" * At most **one**.",
		" */",
		"export interface Update {",
		"\t/**",
		"\t * The id.",
		"\t */",
		"\tupdate_id: number;",
		"",
		"\t/**",
		"\t * _Optional_. New message",
		"\t */",
		"\tmessage?: Message;",
		"}",
		"",
		"export type ChatId = number | string;",
		"",
		"/**",
		" * `getUpdates` parameters",
		" */",
		"export interface GetUpdatesParameters {",
		"\t/**",
		"\t * First id.",
		"\t */",
		"\toffset?: number;",
		"}",
		"",
		"export default abstract class AbstractApi {",
		"\t/**",
		"\t * Receive updates.",
		"\t */",
		"\tabstract getUpdates(parameters?: GetUpdatesParameters): Promise<Update[]>;",
		"",
		"\t/**",
		"\t * Test token.",
		"\t */",
		"\tabstract getMe(): Promise<User>;",
		"}",
	)

	out, err := Render(sampleSchema(), FormatTypeScript, Options{})
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
}

func TestTypeScriptRequiredParameters(t *testing.T) {
	schema := types.Schema{Methods: []types.ResolvedMethod{{
		Spec: types.MethodSpec{Name: "sendMessage", ReturnType: "Message"},
		Output: types.Output{Fields: []types.Field{
			{Name: "chat_id", Type: "number | string", IsRequired: types.Bool(true)},
			{Name: "offset", Type: "number", IsRequired: types.Bool(false)},
		}},
	}}}

	out := TypeScript(Build(schema), "Api")

	assert.Contains(t, out, "\tchat_id: number | string;\n")
	assert.Contains(t, out, "\toffset?: number;\n")
	assert.Contains(t, out, "export default abstract class Api {\n")
	assert.Contains(t, out, "\tabstract sendMessage(parameters: SendMessageParameters): Promise<Message>;\n")
}

func TestMethodWithoutFields(t *testing.T) {
	schema := types.Schema{Methods: []types.ResolvedMethod{{
		Spec:   types.MethodSpec{Name: "logOut", ReturnType: "true"},
		Output: types.Output{Fields: []types.Field{}},
	}}}

	m := Build(schema)
	require.Len(t, m.Methods, 1)
	assert.Nil(t, m.Methods[0].Parameters)

	out := TypeScript(m, "")
	assert.NotContains(t, out, "LogOutParameters")
	assert.Contains(t, out, "\tabstract logOut(): Promise<true>;\n")
}

func TestMembersOptionality(t *testing.T) {
	optionalProse := []types.Description{types.Paragraph("_Optional_. Something")}
	tests := []struct {
		name  string
		field types.Field
		want  bool
	}{
		{"explicit false", types.Field{Name: "a", IsRequired: types.Bool(false)}, true},
		{"explicit true", types.Field{Name: "a", IsRequired: types.Bool(true)}, false},
		{"unknown", types.Field{Name: "a"}, false},
		{"prose with unknown", types.Field{Name: "a", Description: optionalProse}, true},
		{"prose wins over true", types.Field{Name: "a", IsRequired: types.Bool(true), Description: optionalProse}, true},
		{"marker outside first paragraph", types.Field{Name: "a", Description: []types.Description{
			types.Paragraph("Required."), types.Paragraph("_Optional_ later"),
		}}, false},
		{"marker in list", types.Field{Name: "a", Description: []types.Description{types.List("_Optional_")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Members([]types.Field{tt.field}, nil)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Optional)
		})
	}
}

func TestMembersOverridesPerAttribute(t *testing.T) {
	fields := []types.Field{
		{Name: "media", Type: "string", IsRequired: types.Bool(false), Description: []types.Description{types.Paragraph("File to send.")}},
		{Name: "caption", Type: "string", IsRequired: types.Bool(false)},
	}
	overrides := types.Overrides{
		"media": {Type: "InputFile | string", IsRequired: types.Bool(true)},
	}

	got := Members(fields, overrides)

	require.Len(t, got, 2)
	assert.Equal(t, "InputFile | string", got[0].Type)
	assert.False(t, got[0].Optional)
	assert.Equal(t, []types.Description{types.Paragraph("File to send.")}, got[0].Description)
	assert.Equal(t, "string", got[1].Type)
	assert.True(t, got[1].Optional)
}

func TestOverridesApplyToDeclaredInterface(t *testing.T) {
	schema := types.Schema{Types: []types.ResolvedType{{
		Spec: types.TypeSpec{
			Name: "InputFile",
			Declaration: &types.Declaration{Kind: types.DeclarationInterface, Fields: []types.Field{
				{Name: "name", Type: "string"},
			}},
			Overrides: types.Overrides{"name": {IsRequired: types.Bool(false)}},
		},
	}}}

	out := TypeScript(Build(schema), "")

	assert.True(t, strings.HasPrefix(out, "export interface InputFile {\n\tname?: string;\n}\n"))
}

func TestDescriptionLines(t *testing.T) {
	desc := []types.Description{
		types.Paragraph("Intro."),
		types.Blockquote(
			types.Paragraph("**Notes**"),
			types.Paragraph("First note."),
		),
		types.List("one", "two"),
	}

	assert.Equal(t, []string{
		"Intro.",
		"",
		"> **Notes**",
		">",
		"> First note.",
		"",
		"- one",
		"- two",
	}, DescriptionLines(desc))
}

func TestDescriptionLinesSplitsMultilineParagraph(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DescriptionLines([]types.Description{types.Paragraph("a\nb")}))
	assert.Empty(t, DescriptionLines(nil))
}

func TestParametersName(t *testing.T) {
	assert.Equal(t, "SendMessageParameters", ParametersName("sendMessage"))
	assert.Equal(t, "GetMeParameters", ParametersName("getMe"))
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(sampleSchema(), FormatJSON, Options{})
	require.NoError(t, err)

	var m Model
	require.NoError(t, json.Unmarshal(out, &m))
	require.Len(t, m.Types, 2)
	assert.Equal(t, []string{"number", "string"}, m.Types[1].Union)
	require.NotNil(t, m.Methods[0].Parameters)
	assert.Equal(t, "GetUpdatesParameters", m.Methods[0].Parameters.Name)
	assert.True(t, m.Methods[0].Parameters.Fields[0].Optional)
	assert.Nil(t, m.Methods[1].Parameters)
}

func TestRenderMarkdown(t *testing.T) {
	out, err := Render(sampleSchema(), FormatMarkdown, Options{Title: "Bot API"})
	require.NoError(t, err)

	md := string(out)
	assert.True(t, strings.HasPrefix(md, "# Bot API\n"))
	assert.Contains(t, md, "\n### Update\n")
	assert.Contains(t, md, "- update_id (`number`, required): The id.\n")
	assert.Contains(t, md, "- message (`Message`, optional): _Optional_. New message\n")
	assert.Contains(t, md, "**One of:** number | string\n")
	assert.Contains(t, md, "**Returns:** `Update[]`\n")
	assert.Contains(t, md, "#### Parameters (`GetUpdatesParameters`)\n")
}

func TestRenderOpenAPI(t *testing.T) {
	schema := sampleSchema()
	schema.Types[0].Fields = append(schema.Types[0].Fields,
		types.Field{Name: "tags", Type: "(number | string)[]"},
		types.Field{Name: "flag", Type: "true"},
	)
	out, err := Render(schema, FormatOpenAPI, Options{})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, "3.0.0", doc["openapi"])

	schemas := doc["components"].(map[string]interface{})["schemas"].(map[string]interface{})
	update := schemas["Update"].(map[string]interface{})
	assert.Equal(t, "object", update["type"])
	assert.Equal(t, []interface{}{"update_id", "tags", "flag"}, update["required"])

	props := update["properties"].(map[string]interface{})
	assert.Equal(t, "#/components/schemas/Message", props["message"].(map[string]interface{})["$ref"])
	assert.Equal(t, map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{"oneOf": []interface{}{
			map[string]interface{}{"type": "number"},
			map[string]interface{}{"type": "string"},
		}},
	}, props["tags"])
	assert.Equal(t, map[string]interface{}{"type": "boolean", "enum": []interface{}{true}}, props["flag"])

	chatID := schemas["ChatId"].(map[string]interface{})
	assert.Len(t, chatID["oneOf"], 2)
	assert.Contains(t, schemas, "GetUpdatesParameters")

	paths := doc["paths"].(map[string]interface{})
	getUpdates := paths["/getUpdates"].(map[string]interface{})["post"].(map[string]interface{})
	body := getUpdates["requestBody"].(map[string]interface{})
	assert.Equal(t, false, body["required"])
	getMe := paths["/getMe"].(map[string]interface{})["post"].(map[string]interface{})
	assert.NotContains(t, getMe, "requestBody")
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(types.Schema{}, "protobuf", Options{})
	assert.Error(t, err)
}
