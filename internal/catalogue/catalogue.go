// Package catalogue loads the declaration file listing the types and methods to generate.
package catalogue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/botapigen/pkg/types"
)

// Load reads a catalogue from a .json, .yaml or .yml file.
func Load(path string) (types.Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Catalogue{}, errors.Wrap(err, "read catalogue")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return Parse(data, FormatJSON)
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	default:
		return types.Catalogue{}, errors.Errorf("catalogue %s: unsupported extension %q", path, ext)
	}
}

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Parse decodes and validates a catalogue.
func Parse(data []byte, format string) (types.Catalogue, error) {
	var cat types.Catalogue
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cat); err != nil {
			return types.Catalogue{}, errors.Wrap(err, "decode json catalogue")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cat); err != nil {
			return types.Catalogue{}, errors.Wrap(err, "decode yaml catalogue")
		}
	default:
		return types.Catalogue{}, errors.Errorf("unknown catalogue format %q", format)
	}
	if err := Validate(cat); err != nil {
		return types.Catalogue{}, err
	}
	return cat, nil
}

// Validate checks names are present and unique per kind and that
// declarations are well formed.
func Validate(cat types.Catalogue) error {
	seen := make(map[string]bool)
	for i, t := range cat.Types {
		if strings.TrimSpace(t.Name) == "" {
			return errors.Errorf("types[%d]: name is required", i)
		}
		if seen[t.Name] {
			return errors.Errorf("types[%d]: duplicate type %q", i, t.Name)
		}
		seen[t.Name] = true
		if err := validateDeclaration(t.Declaration); err != nil {
			return errors.Wrapf(err, "type %s", t.Name)
		}
	}

	seen = make(map[string]bool)
	for i, m := range cat.Methods {
		if strings.TrimSpace(m.Name) == "" {
			return errors.Errorf("methods[%d]: name is required", i)
		}
		if seen[m.Name] {
			return errors.Errorf("methods[%d]: duplicate method %q", i, m.Name)
		}
		seen[m.Name] = true
		if strings.TrimSpace(m.ReturnType) == "" {
			return errors.Errorf("method %s: type is required", m.Name)
		}
		if m.Declaration != nil && m.Declaration.Kind != types.DeclarationInterface {
			return errors.Errorf("method %s: declaration must be an interface", m.Name)
		}
		if err := validateDeclaration(m.Declaration); err != nil {
			return errors.Wrapf(err, "method %s", m.Name)
		}
	}
	return nil
}

func validateDeclaration(d *types.Declaration) error {
	if d == nil {
		return nil
	}
	switch d.Kind {
	case types.DeclarationUnion:
		if len(d.Members) == 0 {
			return errors.New("union declaration has no members")
		}
	case types.DeclarationInterface:
		for i, f := range d.Fields {
			if f.Name == "" || f.Type == "" {
				return errors.Errorf("declaration field %d needs a name and a type", i)
			}
		}
	default:
		return errors.Errorf("unknown declaration type %q", d.Kind)
	}
	return nil
}
