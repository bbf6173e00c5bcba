package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints the build information stamped in at link time.
func NewVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gridseer %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
