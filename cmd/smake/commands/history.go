package commands

import "github.com/spf13/cobra"

func (c *CLI) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the last recorded build of every target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			makefile, _ := cmd.Flags().GetString("makefile")
			journal, _ := cmd.Flags().GetString("journal")
			return c.app.History(makefile, journal)
		},
	}
}
