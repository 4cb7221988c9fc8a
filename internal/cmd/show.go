package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/placeholder"
	"github.com/promptlens/promptlens/internal/prompt"
)

var showCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show a prompt's effective properties and template",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("output-format", "o", "table", "output format: table, json")
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, observability.CLILogger)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck // best-effort cleanup

	if err := a.load(ctx); err != nil {
		return err
	}
	node, err := a.find(args[0])
	if err != nil {
		return err
	}
	pinned, err := a.pins.IsPinned(ctx, node.Identifier)
	if err != nil {
		return err
	}

	return writePromptDetail(cmd.OutOrStdout(), format, node, pinned)
}

func writePromptDetail(w io.Writer, format output.Format, node *prompt.Node, pinned bool) error {
	template := prompt.Template(node)
	if format == output.FormatJSON {
		annotated := prompt.Annotate([]*prompt.Node{node}, func(string) bool { return pinned })
		detail := struct {
			output.PromptSummary
			Template     string         `json:"template"`
			Properties   map[string]any `json:"properties"`
			Placeholders []string       `json:"placeholders,omitempty"`
		}{
			PromptSummary: output.Summarize(annotated)[0],
			Template:      template,
			Properties:    node.Properties(),
			Placeholders:  placeholder.Names(template),
		}
		rendered, err := (&output.JSONFormatter{Indent: true}).Marshal(detail)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, rendered)
		return err
	}

	var sb strings.Builder
	sb.WriteString(output.PropertiesTable(node))
	sb.WriteString("\n\nTemplate:\n")
	sb.WriteString(template)
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
