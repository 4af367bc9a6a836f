package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petrelhq/petrel/internal/output"
	"github.com/petrelhq/petrel/internal/update"
	"github.com/petrelhq/petrel/internal/vcs"
)

// CheckCmd creates and returns the 'check' command.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether a template update is available",
		Long: `Compares the project's recorded template revision with the
template's latest revision and shows the changes in between. Read-only.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			root, err := os.Getwd()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			o := update.NewOrchestrator(vcs.NewGit(), commandLogger(cmd))
			result, err := o.Check(cmd.Context(), root)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			if result.UpToDate() {
				output.Success("project is up to date")
				return
			}

			output.Info(fmt.Sprintf("update available: %.8s -> %.8s", result.Current, result.Target))
			if result.Changelog != "" {
				for _, line := range strings.Split(result.Changelog, "\n") {
					output.Step(line)
				}
			}
			output.Info("run 'petrel update' to apply it")
		},
	}
}
