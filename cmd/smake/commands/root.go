// Package commands implements the CLI commands for smake.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/smake/internal/app"
	"go.trai.ch/smake/internal/build"
	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) (domain.BuildSummary, error)
	PrintGraph(makefile string) error
	History(makefile, journal string) error
}

// CLI represents the command line interface for smake.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "smake",
		Short:         "Build a make target with every independent dependency in parallel",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.runBuild,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("makefile", "f", "Makefile", "Path of the build description")
	rootCmd.PersistentFlags().String("journal", domain.DefaultJournalPath, "Path of the build journal")

	flags := rootCmd.Flags()
	flags.StringP("target", "t", "", "Target to build (default: the first target)")
	flags.Bool("print-graph", false, "Print the target graph as JSON and exit")
	flags.IntP("jobs", "j", 0, "Maximum number of recipes running at once (0 means unlimited)")
	flags.Bool("strict", false, "Fail the build when a recipe exits non-zero and skip its dependents")
	flags.Bool("check-cycles", false, "Reject cyclic graphs before building")
	flags.String("make", "", "External build tool (default: $MAKE or make)")
	flags.StringP("output", "o", "auto", "Output mode: auto, tui, linear or ci (same as linear)")
	flags.Bool("no-journal", false, "Do not record the run in the build journal")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newVersionCmd())
	rootCmd.AddCommand(c.newHistoryCmd())

	return c
}

func (c *CLI) runBuild(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	makefile, _ := flags.GetString("makefile")

	if printGraph, _ := flags.GetBool("print-graph"); printGraph {
		return c.app.PrintGraph(makefile)
	}

	jobs, _ := flags.GetInt("jobs")
	if jobs < 0 {
		return zerr.With(zerr.New("--jobs must not be negative"), "jobs", jobs)
	}

	opts := app.BuildOptions{Makefile: makefile, Jobs: jobs}
	opts.Target, _ = flags.GetString("target")
	opts.Strict, _ = flags.GetBool("strict")
	opts.CheckCycles, _ = flags.GetBool("check-cycles")
	opts.Tool, _ = flags.GetString("make")
	opts.Output, _ = flags.GetString("output")
	opts.Journal, _ = flags.GetString("journal")
	opts.NoJournal, _ = flags.GetBool("no-journal")

	_, err := c.app.Build(cmd.Context(), opts)
	return err
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
