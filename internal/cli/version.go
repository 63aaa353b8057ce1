package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version reported by the version command.
const Version = "0.1.0"

const modulePath = "github.com/civicworks/reclaim"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reclaim version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "reclaim v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
