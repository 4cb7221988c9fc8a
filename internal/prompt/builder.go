package prompt

import (
	"context"
	"strings"

	"github.com/promptlens/promptlens/internal/placeholder"
)

// KeyPrompts is the replacement key holding the indented tree with content.
const KeyPrompts = "prompts"

// Builder assembles a prompt's final text from its content, its prefix and
// suffix property lists, and the runtime replacements.
type Builder struct {
	Loader    *Loader
	Formatter *placeholder.Formatter
}

// NewBuilder returns a Builder. A nil formatter uses the defaults.
func NewBuilder(loader *Loader, formatter *placeholder.Formatter) *Builder {
	if formatter == nil {
		formatter = placeholder.New()
	}
	return &Builder{Loader: loader, Formatter: formatter}
}

// BuildFormattedPromptContent renders node with file resolution enabled.
func (b *Builder) BuildFormattedPromptContent(node *Node, r placeholder.Replacements, rootDir string) string {
	out, _ := b.BuildFormattedPromptContentContext(context.Background(), node, r, rootDir)
	return out
}

// BuildFormattedPromptContentContext is BuildFormattedPromptContent with a
// context checked before each file inclusion.
func (b *Builder) BuildFormattedPromptContentContext(ctx context.Context, node *Node, r placeholder.Replacements, rootDir string) (string, error) {
	template := Template(node)
	return b.Formatter.FormatContext(ctx, template, b.Replacements(node, r), rootDir, placeholder.FormatOptions{ResolveFile: true})
}

// Template returns prefix + content + suffix before any substitution.
func Template(node *Node) string {
	if node == nil {
		return ""
	}
	content, _ := node.Props[PropContent].(string)
	prefix := placeholderLines(node.Prefix())
	if prefix != "" {
		prefix += "\n"
	}
	suffix := placeholderLines(node.Suffix())
	if suffix != "" {
		suffix = "\n" + suffix
	}
	return prefix + content + suffix
}

// Replacements merges the node's properties under the runtime replacements
// and adds the prompt tree dumps.
func (b *Builder) Replacements(node *Node, r placeholder.Replacements) placeholder.Replacements {
	extra := node.Properties()
	for k, v := range r.Extra {
		extra[k] = v
	}
	merged := r
	merged.Extra = extra

	if b.Loader != nil {
		roots := b.Loader.RootPrompts()
		merged.PromptTitles = TitleTree(roots)
		merged.Extra[KeyPrompts] = ContentTree(roots)
	}
	return merged
}

// placeholderLines turns "a, b, a" into "{{a}}\n{{b}}".
func placeholderLines(list string) string {
	names := SplitList(list)
	if len(names) == 0 {
		return ""
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "{{"+name+"}}")
	}
	return strings.Join(lines, "\n")
}

// TitleTree renders titles indented two spaces per level.
func TitleTree(nodes []*Node) string {
	var lines []string
	for _, root := range nodes {
		root.Walk(func(n *Node, depth int) bool {
			lines = append(lines, strings.Repeat("  ", depth)+n.Title())
			return true
		})
	}
	return strings.Join(lines, "\n")
}

// ContentTree renders titles with their content indented below them.
func ContentTree(nodes []*Node) string {
	var lines []string
	for _, root := range nodes {
		root.Walk(func(n *Node, depth int) bool {
			indent := strings.Repeat("  ", depth)
			lines = append(lines, indent+n.Title())
			if content, ok := n.Props[PropContent].(string); ok && content != "" {
				for _, line := range strings.Split(content, "\n") {
					lines = append(lines, indent+"  "+line)
				}
			}
			return true
		})
	}
	return strings.Join(lines, "\n")
}
