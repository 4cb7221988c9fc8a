package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/placeholder"
)

// replacementFlags maps command-line flags to standard replacement keys.
var replacementFlags = []struct {
	flag, key, usage string
}{
	{"input", placeholder.KeyInput, "value for {{input}}"},
	{"selection", placeholder.KeySelection, "value for {{selection}}"},
	{"clipboard", placeholder.KeyClipboard, "value for {{clipboard}}"},
	{"current-app", placeholder.KeyCurrentApp, "value for {{currentApp}}"},
	{"browser-content", placeholder.KeyBrowserContent, "value for {{browserContent}}"},
	{"all-app", placeholder.KeyAllApp, "value for {{allApp}}"},
	{"diff", placeholder.KeyDiff, "value for {{diff}}"},
}

func addReplacementFlags(cmd *cobra.Command) {
	for _, f := range replacementFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringArray("var", nil, "additional value as key=value (repeatable)")
	cmd.Flags().Bool("stdin", false, "read {{input}} from stdin")
	cmd.Flags().String("root", "", "base directory for {{file:...}} placeholders")
}

// replacementsFromFlags collects the runtime replacements given on the
// command line. --var entries naming a standard key set that key.
func replacementsFromFlags(cmd *cobra.Command) (placeholder.Replacements, error) {
	var r placeholder.Replacements
	for _, f := range replacementFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		value, err := cmd.Flags().GetString(f.flag)
		if err != nil {
			return r, err
		}
		r = r.With(f.key, value)
	}

	vars, err := cmd.Flags().GetStringArray("var")
	if err != nil {
		return r, err
	}
	for _, entry := range vars {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return r, fmt.Errorf("invalid --var %q: expected key=value", entry)
		}
		r = r.With(key, value)
	}

	useStdin, err := cmd.Flags().GetBool("stdin")
	if err != nil {
		return r, err
	}
	if useStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return r, fmt.Errorf("read stdin: %w", err)
		}
		r.Input = strings.TrimRight(string(data), "\n")
	}
	return r, nil
}
