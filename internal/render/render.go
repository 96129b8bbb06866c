package render

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/yourorg/botapigen/pkg/types"
)

const (
	FormatTypeScript = "typescript"
	FormatJSON       = "json"
	FormatMarkdown   = "markdown"
	FormatOpenAPI    = "openapi"
)

// Formats lists every supported output format.
var Formats = []string{FormatTypeScript, FormatJSON, FormatMarkdown, FormatOpenAPI}

// DefaultTitle heads the markdown and OpenAPI outputs.
const DefaultTitle = "Telegram Bot API"

type Options struct {
	ClassName string
	Title     string
}

// Render builds the model once and prints it in the requested format.
func Render(schema types.Schema, format string, opts Options) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	m := Build(schema)
	switch format {
	case FormatTypeScript, "":
		return []byte(TypeScript(m, opts.ClassName)), nil
	case FormatMarkdown:
		return []byte(Markdown(m, opts.Title)), nil
	case FormatOpenAPI:
		return OpenAPI(m, opts.Title)
	case FormatJSON:
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshal json")
		}
		return append(out, '\n'), nil
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}
