package output

import (
	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/promptlens/promptlens/internal/prompt"
)

// TreeFormatter renders prompts with their subprompts as an indented tree.
// IsPinned marks descendants; without it only the nodes' own Pinned flags
// are shown.
type TreeFormatter struct {
	IsPinned func(id string) bool
}

// FormatPrompts renders each node and its descendants.
func (f *TreeFormatter) FormatPrompts(nodes []*prompt.Node) (string, error) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	for _, node := range nodes {
		appendTree(l, node, f.IsPinned)
	}
	return l.Render(), nil
}

func appendTree(l list.Writer, node *prompt.Node, isPinned func(string) bool) {
	if node == nil {
		return
	}
	s := Summarize([]*prompt.Node{node})[0]
	if isPinned != nil {
		s.Pinned = isPinned(node.Identifier)
	}
	label := displayTitle(s) + "  [" + s.Identifier + "]"
	if s.Pinned {
		label = "* " + label
	}
	l.AppendItem(label)

	if len(node.Subprompts) == 0 {
		return
	}
	l.Indent()
	for _, child := range node.Subprompts {
		appendTree(l, child, isPinned)
	}
	l.UnIndent()
}
