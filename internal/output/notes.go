package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/promptlens/promptlens/internal/placeholder"
)

const maxCellWidth = 60

// summaryNotes builds the notes column for a listing row.
func summaryNotes(s PromptSummary) string {
	var notes []string
	if len(s.Actions) > 0 {
		notes = append(notes, "actions: "+strings.Join(s.Actions, ", "))
	}
	if s.Subprompts > 0 {
		notes = append(notes, fmt.Sprintf("%d subprompts", s.Subprompts))
	}
	if s.Temporary {
		notes = append(notes, "temporary: "+filepath.Base(s.TemporaryDirSource))
	}
	return strings.Join(notes, "; ")
}

// pinMarker marks pinned rows.
func pinMarker(pinned bool) string {
	if pinned {
		return "*"
	}
	return ""
}

// displayTitle prefixes the icon when the title does not already start with it.
func displayTitle(s PromptSummary) string {
	if s.Icon == "" || strings.HasPrefix(s.Title, s.Icon) {
		return s.Title
	}
	return s.Icon + " " + s.Title
}

// displayValue renders a property value on one line.
func displayValue(value any) string {
	s, _ := placeholder.Stringify(value)
	return truncate(oneLine(s))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxCellWidth {
		return s
	}
	return string(runes[:maxCellWidth-1]) + "…"
}
