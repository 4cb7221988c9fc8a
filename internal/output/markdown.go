package output

import (
	"fmt"
	"strings"

	"github.com/promptlens/promptlens/internal/prompt"
)

// MarkdownFormatter renders prompts as a markdown table.
type MarkdownFormatter struct{}

// FormatPrompts renders a prompt listing as Markdown.
func (f *MarkdownFormatter) FormatPrompts(nodes []*prompt.Node) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Pinned | Identifier | Prompt | Notes |\n")
	sb.WriteString("|--------|------------|--------|-------|\n")

	for _, s := range Summarize(nodes) {
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n",
			escapeMarkdownCell(pinMarker(s.Pinned)),
			s.Identifier,
			escapeMarkdownCell(displayTitle(PromptSummary{Title: s.Path, Icon: s.Icon})),
			escapeMarkdownCell(summaryNotes(s)),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
