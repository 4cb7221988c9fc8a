package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/config"
	"github.com/promptlens/promptlens/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// appCfg is loaded once in initConfig.
	appCfg *config.Config

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Manage, browse and render a hierarchical prompt library",
	Long: `promptlens loads prompt definitions from JSON, JSON5 and YAML files,
resolves inherited properties and renders prompts with {{placeholder}}
substitution, fallback chains and file inclusion.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading and CLI commands quiet; serve enables telemetry.
	observability.DisableTelemetry()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/promptlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig builds the CLI logger and loads the configuration.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)

	cfg, err := config.Load(rootCmd.Context(), cfgFile)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
		return
	}
	appCfg = cfg

	observability.CLILogger.Debug("Configuration loaded",
		zap.String("config_file", cfgFile),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("prompt_dirs", cfg.Prompts.Directories))
}

// currentConfig returns the loaded configuration, loading defaults when
// initConfig has not run.
func currentConfig() (*config.Config, error) {
	if appCfg != nil {
		return appCfg, nil
	}
	cfg, err := config.Load(rootCmd.Context(), cfgFile)
	if err != nil {
		return nil, err
	}
	appCfg = cfg
	return cfg, nil
}
