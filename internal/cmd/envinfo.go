package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/config"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		writeEnvInfo(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func writeEnvInfo(w io.Writer, cfg *config.Config) {
	version := crucible.GetVersion()
	line := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...) // nolint:errcheck
	}

	line("=== promptlens Environment Information ===")
	line("")
	line("Application:")
	line("  Version:    %s", versionInfo.Version)
	line("  Commit:     %s", versionInfo.Commit)
	line("  Built:      %s", versionInfo.BuildDate)
	line("")
	line("SSOT:")
	line("  Gofulmen:   %s", version.Gofulmen)
	line("  Crucible:   %s", version.Crucible)
	line("")
	line("Runtime:")
	line("  Go Version: %s", runtime.Version())
	line("  Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	line("  NumCPU:     %d", runtime.NumCPU())
	line("")
	line("Prompts:")
	if len(cfg.Prompts.Directories) == 0 {
		line("  Directories:     (none, built-in defaults)")
	} else {
		line("  Directories:     %s", strings.Join(cfg.Prompts.Directories, ", "))
	}
	line("  Root Dir:        %s", orUnset(cfg.Prompts.RootDir))
	line("  Recursion Depth: %d", cfg.Prompts.RecursionDepth)
	line("  Cache:           %t", cfg.Prompts.Cache)
	line("  Temp TTL:        %s", cfg.Prompts.TempTTL)
	line("  Built-ins:       %s", config.DefaultBuiltinDir())
	line("")
	line("Store:")
	line("  Driver:          %s", cfg.Store.Driver)
	switch strings.ToLower(cfg.Store.Driver) {
	case "redis":
		line("  Redis Addr:      %s", cfg.Store.Redis.Addr)
		line("  Redis Prefix:    %s", cfg.Store.Redis.Prefix)
	case "memory":
	default:
		if strings.TrimSpace(cfg.Store.URL) != "" {
			line("  URL:             %s", cfg.Store.URL)
		} else {
			line("  Path:            %s", cfg.Store.Path)
		}
	}
	line("")
	line("Server:")
	line("  Address:         %s:%d", cfg.Server.Host, cfg.Server.Port)
	line("  Log Level:       %s", cfg.Logging.Level)
	line("  Metrics:         %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port)
	line("  Config File:     %s", orUnset(config.DefaultConfigPath()))
	line("")
	line("=== End Environment Information ===")
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return value
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
