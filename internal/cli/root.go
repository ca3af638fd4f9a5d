package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
	headless bool
)

var rootCmd = &cobra.Command{
	Use:   "edupilot",
	Short: "edupilot - EduPage portal automation",
	Long: `edupilot drives a Chrome browser through repetitive EduPage tasks.
It keeps the portal login in a stored session, checks it before every run
and signs in again only when the session has expired.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. Cancelling ctx stops long-running
// commands such as keepalive.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.edupilot/edupilot.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run Chrome without a window")
	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
}

// GetRootCmd exposes the command tree to tests
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
