// Package commands wires the petrel CLI.
package commands

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/petrelhq/petrel/internal/output"
)

// Version is stamped by the release build.
var Version = "dev"

// RootCmd creates and returns the root command for the petrel CLI.
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "petrel",
		Short: "Template scaffolding with updatable projects",
		Long: `Petrel generates projects from templates and keeps them in sync.

A generated project remembers its template and revision in .petrel.yml.
When the template moves forward, 'petrel update' re-renders both
revisions, 3-way merges the changes into your working tree, and leaves
conflicts inline for you to resolve. A backup tag guards every update.`,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	return cmd
}

// newLogger builds the diagnostic logger the domain packages share. Verbose
// mode lowers the level to debug.
func newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Level:           level,
	})
}

// commandLogger derives the logger from the command's persistent flags.
func commandLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	return newLogger(verbose)
}
