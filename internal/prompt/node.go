// Package prompt loads hierarchical prompt definitions from source
// directories, resolves property inheritance into an immutable tree and
// builds formatted prompt content.
package prompt

import (
	"strings"
)

// Property names with dedicated handling.
const (
	PropTitle      = "title"
	PropContent    = "content"
	PropIcon       = "icon"
	PropPrefix     = "prefix"
	PropSuffix     = "suffix"
	PropActions    = "actions"
	PropSubprompts = "subprompts"
	PropIdentifier = "identifier"
	PropPath       = "path"
	PropPinned     = "pinned"
	PropOptions    = "options"
	PropTextInputs = "textInputs"
	PropFilePath   = "filePath"
	PropRef        = "ref"

	propRootProperty = "rootProperty"
	propPrompts      = "prompts"
)

// nonInheritable lists properties a child never takes from its parent.
var nonInheritable = map[string]bool{
	PropSubprompts: true,
	PropIdentifier: true,
	PropPath:       true,
	PropPinned:     true,
	PropOptions:    true,
	PropTextInputs: true,
	PropFilePath:   true,
}

// Node is a fully resolved prompt. Nodes are built fresh on every load pass
// and are not mutated afterwards.
type Node struct {
	Identifier         string         `json:"identifier"`
	Path               string         `json:"path"`
	FilePath           string         `json:"filePath,omitempty"`
	IsTemporary        bool           `json:"isTemporary,omitempty"`
	TemporaryDirSource string         `json:"temporaryDirSource,omitempty"`
	Options            any            `json:"options,omitempty"`
	TextInputs         any            `json:"textInputs,omitempty"`
	Props              map[string]any `json:"props"`
	Subprompts         []*Node        `json:"subprompts,omitempty"`

	// Pinned is set for display from the pin store and never cached.
	Pinned bool `json:"-"`
}

// Title returns the prompt title.
func (n *Node) Title() string {
	return n.stringProp(PropTitle)
}

// Content returns the prompt body, falling back to the title.
func (n *Node) Content() string {
	if content := n.stringProp(PropContent); content != "" {
		return content
	}
	return n.Title()
}

// Icon returns the icon property.
func (n *Node) Icon() string {
	return n.stringProp(PropIcon)
}

// Prefix returns the comma-separated prefix property list.
func (n *Node) Prefix() string {
	return n.stringProp(PropPrefix)
}

// Suffix returns the comma-separated suffix property list.
func (n *Node) Suffix() string {
	return n.stringProp(PropSuffix)
}

// Ref returns the ref property.
func (n *Node) Ref() string {
	return n.stringProp(PropRef)
}

// Actions returns the action names, normalized to a list.
func (n *Node) Actions() []string {
	if n == nil {
		return nil
	}
	return toStringList(n.Props[PropActions])
}

// Property returns a single resolved property.
func (n *Node) Property(name string) (any, bool) {
	if n == nil {
		return nil, false
	}
	value, ok := n.Props[name]
	return value, ok
}

// Properties returns the node as a flat property map: resolved properties plus
// identifier, path, file path and options. The map is a copy.
func (n *Node) Properties() map[string]any {
	if n == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(n.Props)+6)
	for k, v := range n.Props {
		out[k] = v
	}
	if _, ok := out[PropContent]; !ok {
		out[PropContent] = n.Content()
	}
	out[PropIdentifier] = n.Identifier
	out[PropPath] = n.Path
	if n.FilePath != "" {
		out[PropFilePath] = n.FilePath
	}
	if n.Options != nil {
		out[PropOptions] = n.Options
	}
	if n.TextInputs != nil {
		out[PropTextInputs] = n.TextInputs
	}
	return out
}

// Matches reports whether query occurs, ignoring case, in the identifier,
// path or title. An empty query matches every node.
func (n *Node) Matches(query string) bool {
	if n == nil {
		return false
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{n.Identifier, n.Path, n.Title()} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false stops the walk.
func (n *Node) Walk(visit func(node *Node, depth int) bool) bool {
	return walk(n, 0, visit)
}

func walk(n *Node, depth int, visit func(*Node, int) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n, depth) {
		return false
	}
	for _, child := range n.Subprompts {
		if !walk(child, depth+1, visit) {
			return false
		}
	}
	return true
}

func (n *Node) stringProp(name string) string {
	if n == nil {
		return ""
	}
	s, _ := n.Props[name].(string)
	return s
}

// toStringList accepts a list or a comma-joined string.
func toStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return SplitList(v)
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// SplitList splits a comma-separated list, trimming entries and dropping
// blanks and duplicates while keeping first-seen order.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
