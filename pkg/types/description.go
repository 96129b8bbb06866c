package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type DescriptionKind string

const (
	DescriptionParagraph  DescriptionKind = "paragraph"
	DescriptionBlockquote DescriptionKind = "blockquote"
	DescriptionList       DescriptionKind = "list"
)

// Description is one block of documentation prose.
// Content is set for paragraphs, Blocks for blockquotes and Items for lists.
type Description struct {
	Kind    DescriptionKind
	Content string
	Blocks  []Description
	Items   []string
}

// Paragraph returns a paragraph block.
func Paragraph(content string) Description {
	return Description{Kind: DescriptionParagraph, Content: content}
}

// Blockquote returns a quoted block wrapping blocks.
func Blockquote(blocks ...Description) Description {
	if blocks == nil {
		blocks = []Description{}
	}
	return Description{Kind: DescriptionBlockquote, Blocks: blocks}
}

// List returns an unordered list block.
func List(items ...string) Description {
	if items == nil {
		items = []string{}
	}
	return Description{Kind: DescriptionList, Items: items}
}

type paragraphWire struct {
	Type    DescriptionKind `json:"type" yaml:"type"`
	Content string          `json:"content" yaml:"content"`
}

type blockquoteWire struct {
	Type  DescriptionKind `json:"type" yaml:"type"`
	Items []Description   `json:"items" yaml:"items"`
}

type listWire struct {
	Type  DescriptionKind `json:"type" yaml:"type"`
	Items []string        `json:"items" yaml:"items"`
}

func (d Description) wire() (interface{}, error) {
	switch d.Kind {
	case DescriptionParagraph:
		return paragraphWire{Type: d.Kind, Content: d.Content}, nil
	case DescriptionBlockquote:
		blocks := d.Blocks
		if blocks == nil {
			blocks = []Description{}
		}
		return blockquoteWire{Type: d.Kind, Items: blocks}, nil
	case DescriptionList:
		items := d.Items
		if items == nil {
			items = []string{}
		}
		return listWire{Type: d.Kind, Items: items}, nil
	default:
		return nil, fmt.Errorf("unknown description type %q", d.Kind)
	}
}

func (d Description) MarshalJSON() ([]byte, error) {
	w, err := d.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the tagged object form and, for paragraphs, a bare string.
func (d *Description) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*d = Paragraph(text)
		return nil
	}
	var aux struct {
		Type    DescriptionKind `json:"type"`
		Content string          `json:"content"`
		Items   json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch aux.Type {
	case DescriptionParagraph:
		*d = Paragraph(aux.Content)
	case DescriptionBlockquote:
		var blocks []Description
		if len(aux.Items) > 0 {
			if err := json.Unmarshal(aux.Items, &blocks); err != nil {
				return err
			}
		}
		*d = Blockquote(blocks...)
	case DescriptionList:
		var items []string
		if len(aux.Items) > 0 {
			if err := json.Unmarshal(aux.Items, &items); err != nil {
				return err
			}
		}
		*d = List(items...)
	default:
		return fmt.Errorf("unknown description type %q", aux.Type)
	}
	return nil
}

func (d Description) MarshalYAML() (interface{}, error) {
	return d.wire()
}

// UnmarshalYAML mirrors UnmarshalJSON: a scalar node is a paragraph.
func (d *Description) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*d = Paragraph(value.Value)
		return nil
	}
	var aux struct {
		Type    DescriptionKind `yaml:"type"`
		Content string          `yaml:"content"`
		Items   yaml.Node       `yaml:"items"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	switch aux.Type {
	case DescriptionParagraph:
		*d = Paragraph(aux.Content)
	case DescriptionBlockquote:
		var blocks []Description
		if aux.Items.Kind != 0 {
			if err := aux.Items.Decode(&blocks); err != nil {
				return err
			}
		}
		*d = Blockquote(blocks...)
	case DescriptionList:
		var items []string
		if aux.Items.Kind != 0 {
			if err := aux.Items.Decode(&items); err != nil {
				return err
			}
		}
		*d = List(items...)
	default:
		return fmt.Errorf("line %d: unknown description type %q", value.Line, aux.Type)
	}
	return nil
}
