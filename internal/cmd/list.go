package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/prompt"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded prompts",
	Long: `List the prompts loaded from the configured sources.

By default only top-level prompts are listed; --flat lists every prompt in
depth-first order. Pinned prompts are marked with *.

Examples:
  promptlens list
  promptlens list --flat --filter grammar
  promptlens list -o tree
  promptlens list --pinned -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("flat", false, "list every prompt, not only top-level ones")
	listCmd.Flags().String("filter", "", "only prompts whose title, path or identifier contains this text")
	listCmd.Flags().Bool("pinned", false, "only pinned prompts")
	listCmd.Flags().StringP("output-format", "o", "table", "output format: table, json, markdown, tree")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	flat, _ := cmd.Flags().GetBool("flat")
	filter, _ := cmd.Flags().GetString("filter")
	onlyPinned, _ := cmd.Flags().GetBool("pinned")

	ctx := cmd.Context()
	a, err := openApp(ctx, observability.CLILogger)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck // best-effort cleanup

	if err := a.load(ctx); err != nil {
		return err
	}
	pins, err := a.pins.Set(ctx)
	if err != nil {
		return err
	}

	nodes := selectPrompts(a.loader, flat && format != output.FormatTree, filter)
	nodes = prompt.Annotate(nodes, func(id string) bool { return pins[id] })
	if onlyPinned {
		nodes = pinnedOnly(nodes)
	}

	var formatter output.Formatter
	if format == output.FormatTree {
		formatter = &output.TreeFormatter{IsPinned: func(id string) bool { return pins[id] }}
	} else {
		formatter = output.NewFormatter(format)
	}

	rendered, err := formatter.FormatPrompts(nodes)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// selectPrompts returns the root prompts, or every prompt when flat, that
// match filter.
func selectPrompts(loader *prompt.Loader, flat bool, filter string) []*prompt.Node {
	if flat {
		return loader.FilteredPrompts(func(n *prompt.Node) bool { return n.Matches(filter) })
	}
	var nodes []*prompt.Node
	for _, node := range loader.RootPrompts() {
		if node.Matches(filter) {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func pinnedOnly(nodes []*prompt.Node) []*prompt.Node {
	var kept []*prompt.Node
	for _, node := range nodes {
		if node.Pinned {
			kept = append(kept, node)
		}
	}
	return kept
}
