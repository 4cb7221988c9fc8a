package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/metrics"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/output"
	"github.com/promptlens/promptlens/internal/prompt"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reparse every prompt source and refresh the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, observability.CLILogger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		start := time.Now()
		if err := a.reload(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d prompts from %d sources in %s\n",
			len(a.loader.FilteredPrompts(nil)), len(a.loader.Sources()), time.Since(start).Round(time.Millisecond))
		return err
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the prompt sources in load order",
	Args:  cobra.NoArgs,
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
		_, err = fmt.Fprintln(cmd.OutOrStdout(), output.SourcesTable(a.loader.Sources(), a.loader.Signature()))
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload prompts whenever a source directory changes",
	Long: `Watch the prompt source directories and reparse them after changes settle.
Each reload refreshes the tree cache used by the other commands. Stop with
Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("debounce", 0, "quiet period before reloading (default from prompts.watch_debounce)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.CLILogger
	a, err := openApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close() // nolint:errcheck // best-effort cleanup

	if err := a.load(ctx); err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if !cmd.Flags().Changed("debounce") {
		debounce = a.cfg.Prompts.WatchDebounce
	}

	logger.Info("Watching prompt sources",
		zap.Strings("dirs", a.loader.WatchDirs()),
		zap.Duration("debounce", debounce))

	return watchLoader(ctx, a.loader, debounce, func(err error) {
		if err != nil {
			metrics.RecordPromptLoadError("watch")
			logger.Error("Reload failed", zap.Error(err))
			return
		}
		count := len(a.loader.FilteredPrompts(nil))
		metrics.RecordPromptLoad(string(prompt.OriginFresh), count, 0)
		fmt.Fprintf(cmd.OutOrStdout(), "%s reloaded %d prompts\n", time.Now().Format(time.TimeOnly), count) // nolint:errcheck
	})
}

// watchLoader runs loader.Watch until ctx is done.
func watchLoader(ctx context.Context, loader *prompt.Loader, debounce time.Duration, onReload func(error)) error {
	if err := loader.Watch(ctx, debounce, onReload); err != nil {
		return fmt.Errorf("watch prompt sources: %w", err)
	}
	return nil
}
