package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// definitionExtensions are the file extensions parsed as prompt definitions.
var definitionExtensions = map[string]bool{
	".json":  true,
	".json5": true,
	".hjson": true,
	".yaml":  true,
	".yml":   true,
}

// IsDefinitionFile reports whether path has a prompt-definition extension.
func IsDefinitionFile(path string) bool {
	return definitionExtensions[strings.ToLower(filepath.Ext(path))]
}

// ErrNoPrompts is returned when a document has none of the accepted shapes.
var ErrNoPrompts = errors.New("document contains no prompts")

// File is the parsed content of one definition file.
type File struct {
	Path         string
	RootProperty map[string]any
	Prompts      []map[string]any
}

// ParseFile reads and parses a prompt definition file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from a configured prompt source
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", path, err)
	}
	file, err := Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a definition document. .json and .json5 files are read as
// JSON5 (comments, unquoted keys, single-quoted strings, trailing commas),
// .hjson files as Hjson and .yaml/.yml files as YAML.
func Parse(path string, data []byte) (*File, error) {
	file := &File{Path: path}
	if len(bytes.TrimSpace(data)) == 0 {
		return file, nil
	}

	doc, err := decodeDocument(strings.ToLower(filepath.Ext(path)), data)
	if err != nil {
		return nil, err
	}

	switch v := normalizeValue(doc).(type) {
	case nil:
		return file, nil
	case []any:
		file.Prompts = promptList(v)
	case map[string]any:
		if root, ok := v[propRootProperty]; ok {
			if rp, ok := asMap(root); ok {
				file.RootProperty = normalizeProps(rp)
			}
			if list, ok := v[propPrompts].([]any); ok {
				file.Prompts = promptList(list)
				break
			}
			rest := make(map[string]any, len(v))
			for k, val := range v {
				if k != propRootProperty {
					rest[k] = val
				}
			}
			if hasTitle(rest) {
				file.Prompts = []map[string]any{rest}
			}
			break
		}
		if hasTitle(v) {
			file.Prompts = []map[string]any{v}
			break
		}
		if list, ok := v[propPrompts].([]any); ok {
			file.Prompts = promptList(list)
			break
		}
		return nil, ErrNoPrompts
	default:
		return nil, ErrNoPrompts
	}
	return file, nil
}

func decodeDocument(ext string, data []byte) (any, error) {
	var doc any
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".hjson":
		if err := hjson.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json5.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func promptList(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := asMap(item); ok {
			out = append(out, m)
		}
	}
	return out
}

func hasTitle(m map[string]any) bool {
	_, ok := m[PropTitle]
	return ok
}

// asMap converts decoded mappings to map[string]any. yaml.v3 produces
// map[string]any for string keys and map[any]any otherwise.
func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// normalizeProps returns a copy with actions turned into a list.
func normalizeProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	if actions, ok := out[PropActions]; ok {
		out[PropActions] = toStringList(actions)
	}
	return out
}
