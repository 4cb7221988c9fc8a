package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/metrics"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/placeholder"
	"github.com/promptlens/promptlens/internal/prompt"
)

var renderCmd = &cobra.Command{
	Use:   "render <identifier>",
	Short: "Render a prompt with runtime values",
	Long: `Render a prompt: prefix, content and suffix are assembled, properties and
runtime values are substituted and {{file:...}} placeholders are read below
the root directory.

Examples:
  promptlens render 3fa9c2d1 --selection "Their going to the store"
  pbpaste | promptlens render 3fa9c2d1 --stdin
  promptlens render 3fa9c2d1 --var tone=formal --root ~/project`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var formatCmd = &cobra.Command{
	Use:   "format [template]",
	Short: "Format a free-standing template",
	Long: `Substitute placeholders in a template given as an argument or read with
--file (use - for stdin). File inclusion is off unless --resolve-files is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(formatCmd)

	addReplacementFlags(renderCmd)
	renderCmd.Flags().Bool("no-history", false, "do not record the prompt in the usage history")
	renderCmd.Flags().String("out", "", "write the rendered prompt to a file")
	renderCmd.Flags().Bool("show-unresolved", false, "report placeholders left unresolved on stderr")

	addReplacementFlags(formatCmd)
	formatCmd.Flags().String("file", "", "read the template from a file (- for stdin)")
	formatCmd.Flags().Bool("resolve-files", false, "expand {{file:...}} placeholders")
	formatCmd.Flags().Int("recursion-level", 0, "starting recursion level")
	formatCmd.Flags().String("out", "", "write the result to a file")
}

func runRender(cmd *cobra.Command, args []string) error {
	replacements, err := replacementsFromFlags(cmd)
	if err != nil {
		return err
	}
	root, _ := cmd.Flags().GetString("root")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	outPath, _ := cmd.Flags().GetString("out")
	showUnresolved, _ := cmd.Flags().GetBool("show-unresolved")

	ctx := cmd.Context()
	logger := observability.CLILogger
	a, err := openApp(ctx, logger)
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

	content, err := a.builder.BuildFormattedPromptContentContext(ctx, node, replacements, a.rootDir(root))
	if err != nil {
		metrics.RecordRender("prompt", false, 0)
		return err
	}
	unresolved := placeholder.Names(content)
	metrics.RecordRender("prompt", true, len(unresolved))

	if !noHistory {
		if err := a.history.Record(ctx, node.Identifier); err != nil {
			logger.Warn("Failed to record prompt usage", zap.Error(err))
		}
	}
	action, err := resolveAction(cmd, a, node)
	if err != nil {
		logger.Warn("Failed to read default action", zap.Error(err))
	}
	logger.Debug("Prompt rendered",
		zap.String("identifier", node.Identifier),
		zap.String("path", node.Path),
		zap.String("action", action),
		zap.Strings("unresolved", unresolved))

	if showUnresolved && len(unresolved) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "unresolved: %s\n", strings.Join(unresolved, ", ")) // nolint:errcheck
	}
	return writeResult(cmd, outPath, content)
}

func runFormat(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	var template string
	switch {
	case len(args) == 1 && filePath != "":
		return fmt.Errorf("give the template as an argument or with --file, not both")
	case len(args) == 1:
		template = args[0]
	case filePath != "":
		text, err := readInput(cmd, filePath)
		if err != nil {
			return err
		}
		template = text
	default:
		return fmt.Errorf("a template argument or --file is required")
	}

	replacements, err := replacementsFromFlags(cmd)
	if err != nil {
		return err
	}
	root, _ := cmd.Flags().GetString("root")
	resolveFiles, _ := cmd.Flags().GetBool("resolve-files")
	level, _ := cmd.Flags().GetInt("recursion-level")
	outPath, _ := cmd.Flags().GetString("out")
	if level < 0 {
		return fmt.Errorf("--recursion-level must not be negative")
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(root) == "" {
		root = cfg.Prompts.RootDir
	}
	formatter := placeholder.New(
		placeholder.WithMaxDepth(cfg.Prompts.RecursionDepth),
		placeholder.WithLogger(observability.With(observability.CLILogger, zap.String("component", "format"))),
	)

	content, err := formatter.FormatContext(cmd.Context(), template, replacements, root, placeholder.FormatOptions{
		ResolveFile:    resolveFiles,
		RecursionLevel: level,
	})
	if err != nil {
		metrics.RecordRender("template", false, 0)
		return err
	}
	metrics.RecordRender("template", true, len(placeholder.Names(content)))
	return writeResult(cmd, outPath, content)
}

// resolveAction picks the node's first action, falling back to the stored
// default action.
func resolveAction(cmd *cobra.Command, a *app, node *prompt.Node) (string, error) {
	if actions := node.Actions(); len(actions) > 0 {
		return actions[0], nil
	}
	return a.prefs.DefaultAction(cmd.Context())
}

func writeResult(cmd *cobra.Command, path, content string) error {
	sink, err := openSink(cmd, path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(sink.writer, content); err != nil {
		_ = sink.close()
		return err
	}
	return sink.close()
}
