package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptlens/promptlens/internal/prompt"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTree     Format = "tree"
)

// Formatter renders prompt listings.
type Formatter interface {
	FormatPrompts(nodes []*prompt.Node) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatTree):
		return FormatTree, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatTree:
		return &TreeFormatter{}
	default:
		return &TableFormatter{}
	}
}

// PromptSummary is the flat listing view of a prompt.
type PromptSummary struct {
	Identifier         string   `json:"identifier"`
	Title              string   `json:"title"`
	Path               string   `json:"path"`
	Icon               string   `json:"icon,omitempty"`
	Actions            []string `json:"actions,omitempty"`
	FilePath           string   `json:"file_path,omitempty"`
	Pinned             bool     `json:"pinned"`
	Temporary          bool     `json:"temporary,omitempty"`
	TemporaryDirSource string   `json:"temporary_dir_source,omitempty"`
	Subprompts         int      `json:"subprompts,omitempty"`
}

// Summarize converts nodes to summaries without descending into children.
func Summarize(nodes []*prompt.Node) []PromptSummary {
	out := make([]PromptSummary, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, PromptSummary{
			Identifier:         n.Identifier,
			Title:              n.Title(),
			Path:               n.Path,
			Icon:               n.Icon(),
			Actions:            n.Actions(),
			FilePath:           n.FilePath,
			Pinned:             n.Pinned,
			Temporary:          n.IsTemporary,
			TemporaryDirSource: n.TemporaryDirSource,
			Subprompts:         len(n.Subprompts),
		})
	}
	return out
}

// PropertyRows returns a node's resolved properties as sorted key/value
// pairs with values stringified for display.
func PropertyRows(node *prompt.Node) [][2]string {
	if node == nil {
		return nil
	}
	props := node.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{k, displayValue(props[k])})
	}
	return rows
}
