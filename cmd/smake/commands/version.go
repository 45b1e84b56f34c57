package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/smake/internal/build"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "smake version %s\n", build.Version)
		},
	}
}
