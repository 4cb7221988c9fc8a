package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/promptlens/promptlens/internal/prompt"
)

// TableFormatter renders prompts as an ASCII table.
type TableFormatter struct{}

// FormatPrompts renders a prompt listing as a table.
func (f *TableFormatter) FormatPrompts(nodes []*prompt.Node) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"", "Identifier", "Prompt", "Notes"})

	summaries := Summarize(nodes)
	for _, s := range summaries {
		t.AppendRow(table.Row{
			pinMarker(s.Pinned),
			s.Identifier,
			s.Path,
			summaryNotes(s),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d prompts", len(summaries)), ""})
	return t.Render(), nil
}

// PropertiesTable renders a node's resolved properties.
func PropertiesTable(node *prompt.Node) string {
	t := newTable()
	t.AppendHeader(table.Row{"Property", "Value"})
	for _, row := range PropertyRows(node) {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	return t.Render()
}

// SourcesTable renders the resolved source list in load order.
func SourcesTable(sources []prompt.Source, signature string) string {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Kind", "Path"})
	for i, src := range sources {
		t.AppendRow(table.Row{i + 1, string(src.Kind), src.Path})
	}
	if signature != "" {
		t.AppendFooter(table.Row{"", "signature", shortSignature(signature)})
	}
	return t.Render()
}

// TempSourcesTable renders temporary directories with their expiry.
func TempSourcesTable(temps []prompt.TempSource, now time.Time) string {
	t := newTable()
	t.AppendHeader(table.Row{"Path", "Added", "Expires"})
	for _, temp := range temps {
		expires := "never"
		if at := temp.ExpiresAt(); !at.IsZero() {
			expires = fmt.Sprintf("%s (in %s)", at.Local().Format(time.DateTime), at.Sub(now).Round(time.Minute))
		}
		t.AppendRow(table.Row{temp.Path, temp.AddedAt.Local().Format(time.DateTime), expires})
	}
	return t.Render()
}

// HistoryRow is one usage entry resolved against the loaded tree.
type HistoryRow struct {
	Identifier string    `json:"identifier"`
	Path       string    `json:"path,omitempty"`
	UsedAt     time.Time `json:"used_at"`
}

// HistoryTable renders usage history, most recent first.
func HistoryTable(rows []HistoryRow) string {
	t := newTable()
	t.AppendHeader(table.Row{"Used", "Identifier", "Prompt"})
	for _, row := range rows {
		path := row.Path
		if path == "" {
			path = "(not loaded)"
		}
		t.AppendRow(table.Row{row.UsedAt.Local().Format(time.DateTime), row.Identifier, path})
	}
	return t.Render()
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func shortSignature(signature string) string {
	if len(signature) > 12 {
		return signature[:12]
	}
	return signature
}
