package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/lookup"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/prompt"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage pinned prompts",
}

var pinAddCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Pin a loaded prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if err := a.pins.Pin(ctx, node.Identifier); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s (%s)\n", node.Identifier, node.Path)
		return err
	},
}

var pinRemoveCmd = &cobra.Command{
	Use:     "remove <identifier>",
	Aliases: []string{"rm"},
	Short:   "Unpin a prompt",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		removed, err := a.pins.Unpin(ctx, args[0])
		if err != nil {
			return err
		}
		if !removed {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s was not pinned\n", args[0])
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Unpinned %s\n", args[0])
		return err
	},
}

var pinListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		ids, err := a.pins.List(ctx)
		if err != nil {
			return err
		}

		var missing []string
		nodes := make([]*prompt.Node, 0, len(ids))
		for _, id := range ids {
			if node, ok := a.loader.FindByIdentifier(id); ok {
				nodes = append(nodes, node)
			} else {
				missing = append(missing, id)
			}
		}
		nodes = prompt.Annotate(nodes, func(string) bool { return true })

		rendered, err := output.NewFormatter(format).FormatPrompts(nodes)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
			return err
		}
		for _, id := range missing {
			fmt.Fprintf(cmd.ErrOrStderr(), "pinned prompt %s is not loaded\n", id) // nolint:errcheck
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently rendered prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clearAll, _ := cmd.Flags().GetBool("clear")
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if clearAll {
			if err := a.history.Clear(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return err
		}

		if err := a.load(ctx); err != nil {
			return err
		}
		entries, err := a.history.List(ctx)
		if err != nil {
			return err
		}
		rows := make([]output.HistoryRow, 0, len(entries))
		for _, entry := range entries {
			row := output.HistoryRow{Identifier: entry.Identifier, UsedAt: entry.UsedAt}
			if node, ok := a.loader.FindByIdentifier(entry.Identifier); ok {
				row.Path = node.Path
			}
			rows = append(rows, row)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), output.HistoryTable(rows))
		return err
	},
}

var tempCmd = &cobra.Command{
	Use:   "temp",
	Short: "Manage temporary prompt directories",
	Long: `Temporary directories are loaded after the configured directories until
their time-to-live expires.`,
}

var tempAddCmd = &cobra.Command{
	Use:   "add <directory>",
	Short: "Add a temporary prompt directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")
		dir, err := filepath.Abs(lookup.ExpandHome(args[0]))
		if err != nil {
			return err
		}
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if !cmd.Flags().Changed("ttl") {
			ttl = a.cfg.Prompts.TempTTL
		}
		added, err := a.temps.Add(ctx, dir, ttl)
		if err != nil {
			return err
		}
		expires := "never expires"
		if !added.ExpiresAt().IsZero() {
			expires = "expires " + added.ExpiresAt().Local().Format(time.RFC3339)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Path, expires)
		return err
	},
}

var tempListCmd = &cobra.Command{
	Use:   "list",
	Short: "List temporary prompt directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		temps, err := a.temps.List(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), output.TempSourcesTable(temps, time.Now()))
		return err
	},
}

var tempRemoveCmd = &cobra.Command{
	Use:     "remove <directory>",
	Aliases: []string{"rm"},
	Short:   "Remove a temporary prompt directory",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(lookup.ExpandHome(args[0]))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		removed, err := a.temps.Remove(ctx, dir)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s is not a temporary prompt directory", dir)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", dir)
		return err
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change preferences",
}

var prefsDefaultActionCmd = &cobra.Command{
	Use:   "default-action [action]",
	Short: "Show or set the action used when a prompt names none",
	Long: `Without an argument the current default action is printed. An empty
argument ("") clears it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		if len(args) == 1 {
			if err := a.prefs.SetDefaultAction(ctx, args[0]); err != nil {
				return err
			}
		}
		action, err := a.prefs.DefaultAction(ctx)
		if err != nil {
			return err
		}
		if action == "" {
			action = "(unset)"
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), action)
		return err
	},
}

func init() {
	pinCmd.AddCommand(pinAddCmd, pinRemoveCmd, pinListCmd)
	pinListCmd.Flags().StringP("output-format", "o", "table", "output format: table, json, markdown")
	rootCmd.AddCommand(pinCmd)

	historyCmd.Flags().Bool("clear", false, "clear the history")
	rootCmd.AddCommand(historyCmd)

	tempAddCmd.Flags().Duration("ttl", 0, "time-to-live (default from prompts.temp_ttl; 0 never expires)")
	tempCmd.AddCommand(tempAddCmd, tempListCmd, tempRemoveCmd)
	rootCmd.AddCommand(tempCmd)

	prefsCmd.AddCommand(prefsDefaultActionCmd)
	rootCmd.AddCommand(prefsCmd)
}
