package output

import (
	"encoding/json"

	"github.com/promptlens/promptlens/internal/prompt"
)

// JSONFormatter renders prompts as JSON summaries.
type JSONFormatter struct {
	Indent bool
}

// FormatPrompts renders a prompt listing as a JSON array.
func (f *JSONFormatter) FormatPrompts(nodes []*prompt.Node) (string, error) {
	return f.Marshal(Summarize(nodes))
}

// Marshal encodes any value with the formatter's indentation.
func (f *JSONFormatter) Marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
