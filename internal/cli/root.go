// Package cli implements the reclaim command-line interface: object
// registration and queries for institutions, solicitation and interest
// commands for applicants, and the notification inbox.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/civicworks/reclaim/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "reclaim" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reclaim",
		Short: "Lost-and-found coordination for institutions and applicants",
		Long: "Reclaim tracks objects found by institutions, lets applicants claim\n" +
			"them with devolution codes, queues backup applicants, and notifies\n" +
			"people when an object they are looking for turns up.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .reclaim-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newObjectCmd())
	root.AddCommand(newNotifyCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flags.configDir)
}

// resolveDataDir returns the data directory, consulting config.yaml when
// the flag is not set.
func resolveDataDir(configDataDir string) (string, error) {
	return paths.ResolveDataDir(flags.dataDir, configDataDir)
}
