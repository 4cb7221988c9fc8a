package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/promptlens/promptlens/internal/config"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), versionText(extended))
		return err
	},
}

func versionText(extended bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", config.AppName, versionInfo.Version)
	if !extended {
		return sb.String()
	}

	fmt.Fprintf(&sb, "Commit: %s\n", versionInfo.Commit)
	fmt.Fprintf(&sb, "Built: %s\n", versionInfo.BuildDate)
	fmt.Fprintf(&sb, "Go: %s\n\n", runtime.Version())

	version := crucible.GetVersion()
	fmt.Fprintf(&sb, "Gofulmen: %s\n", version.Gofulmen)
	fmt.Fprintf(&sb, "Crucible: %s\n", version.Crucible)
	return sb.String()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
