package render

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/botapigen/internal/typeexpr"
	"github.com/yourorg/botapigen/pkg/types"
)

const schemaRef = "#/components/schemas/"

// OpenAPI renders an OpenAPI 3.0 document with one POST operation per method.
func OpenAPI(m Model, title string) ([]byte, error) {
	schemas := map[string]interface{}{}
	for _, d := range m.Types {
		schemas[d.Name] = declarationSchema(d)
	}

	paths := map[string]interface{}{}
	for _, method := range m.Methods {
		op := map[string]interface{}{
			"operationId": method.Name,
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Successful response",
					"content": map[string]interface{}{
						"application/json": map[string]interface{}{
							"schema": map[string]interface{}{
								"type":     "object",
								"required": []string{"ok", "result"},
								"properties": map[string]interface{}{
									"ok":     map[string]interface{}{"type": "boolean"},
									"result": expressionSchema(method.ReturnType),
								},
							},
						},
					},
				},
			},
		}
		if text := descriptionText(method.Description); text != "" {
			op["description"] = text
		}
		if p := method.Parameters; p != nil {
			schemas[p.Name] = declarationSchema(*p)
			op["requestBody"] = map[string]interface{}{
				"required": !method.ParametersOptional(),
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]interface{}{"$ref": schemaRef + p.Name},
					},
				},
			}
		}
		paths["/"+method.Name] = map[string]interface{}{"post": op}
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":   title,
			"version": "1.0.0",
		},
		"paths": paths,
	}
	if len(schemas) > 0 {
		spec["components"] = map[string]interface{}{"schemas": schemas}
	}

	out, err := yaml.Marshal(spec)
	if err != nil {
		return nil, errors.Wrap(err, "marshal openapi")
	}
	return out, nil
}

func declarationSchema(d Declaration) map[string]interface{} {
	var schema map[string]interface{}
	if d.Union != nil {
		members := make([]interface{}, 0, len(d.Union))
		for _, member := range d.Union {
			members = append(members, expressionSchema(member))
		}
		schema = map[string]interface{}{"oneOf": members}
	} else {
		props := map[string]interface{}{}
		required := []string{}
		for _, f := range d.Fields {
			prop := expressionSchema(f.Type)
			if text := descriptionText(f.Description); text != "" {
				prop["description"] = text
			}
			props[f.Name] = prop
			if !f.Optional {
				required = append(required, f.Name)
			}
		}
		schema = map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
	}
	if text := descriptionText(d.Description); text != "" {
		schema["description"] = text
	}
	return schema
}

// expressionSchema maps a type expression to a schema object. Expressions
// that do not parse are kept as a description.
func expressionSchema(expr string) map[string]interface{} {
	e, err := typeexpr.Parse(expr)
	if err != nil {
		return map[string]interface{}{"description": expr}
	}
	return exprSchema(e)
}

func exprSchema(e typeexpr.Expr) map[string]interface{} {
	switch e.Kind {
	case typeexpr.Array:
		return map[string]interface{}{"type": "array", "items": exprSchema(*e.Elem)}
	case typeexpr.Union:
		members := make([]interface{}, 0, len(e.Members))
		for _, m := range e.Members {
			members = append(members, exprSchema(m))
		}
		return map[string]interface{}{"oneOf": members}
	}
	switch e.Name {
	case "string", "number", "boolean":
		return map[string]interface{}{"type": e.Name}
	case "true", "false":
		return map[string]interface{}{"type": "boolean", "enum": []bool{e.Name == "true"}}
	}
	if len(e.Name) >= 2 && (e.Name[0] == '"' || e.Name[0] == '\'') {
		return map[string]interface{}{"type": "string", "enum": []string{e.Name[1 : len(e.Name)-1]}}
	}
	return map[string]interface{}{"$ref": schemaRef + e.Name}
}

func descriptionText(desc []types.Description) string {
	return strings.Join(DescriptionLines(desc), "\n")
}
