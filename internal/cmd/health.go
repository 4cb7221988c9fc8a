package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/promptlens/promptlens/internal/errors"
	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/server/handlers"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that the configuration loads, the store answers and the prompt sources parse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		ctx := cmd.Context()

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return nil
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))

		a, err := openApp(ctx, logger)
		if err != nil {
			return err
		}
		defer a.Close() // nolint:errcheck // best-effort cleanup

		checks := []namedCheck{
			{"store", handlers.StoreChecker(a.backend)},
			{"prompts", handlers.CheckerFunc(func(ctx context.Context) error {
				if err := a.load(ctx); err != nil {
					return err
				}
				return handlers.PromptsChecker(a.loader).CheckHealth(ctx)
			})},
		}
		if failed := runChecks(ctx, cmd.OutOrStdout(), checks); failed > 0 {
			return errwrap.NewServiceUnavailableError(fmt.Sprintf("%d health checks failed", failed))
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "✅ All health checks passed")
		return err
	},
}

type namedCheck struct {
	name    string
	checker handlers.HealthChecker
}

// runChecks prints one line per check and returns the number of failures.
func runChecks(ctx context.Context, w io.Writer, checks []namedCheck) int {
	failed := 0
	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check.checker.CheckHealth(checkCtx)
		cancel()
		if err != nil {
			failed++
			fmt.Fprintf(w, "❌ %s: %v\n", check.name, err) // nolint:errcheck
			continue
		}
		fmt.Fprintf(w, "✅ %s\n", check.name) // nolint:errcheck
	}
	return failed
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
