package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/petrelhq/petrel/internal/output"
	"github.com/petrelhq/petrel/internal/update"
	"github.com/petrelhq/petrel/internal/vcs"
)

// UpdateCmd creates and returns the 'update' command.
func UpdateCmd() *cobra.Command {
	var (
		checkout          string
		dryRun            bool
		downgrade         bool
		yes               bool
		rollbackOnFailure bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Sync the project with its template",
		Long: `Updates the current project to a newer revision of its template.

Both the project's recorded revision and the target revision are
rendered with the project's own answers; files you never touched are
fast-forwarded, files changed on both sides are 3-way merged, and
conflicts are left inline in the working tree. A backup tag is created
first and removed once the update lands.

Example:
  petrel update --checkout v2.1.0`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			root, err := os.Getwd()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			cfg, err := LoadToolConfig()
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			o := update.NewOrchestrator(vcs.NewGit(), commandLogger(cmd))
			_, err = o.Run(cmd.Context(), root, update.Options{
				Checkout:          checkout,
				DryRun:            dryRun,
				AllowDowngrade:    downgrade,
				Yes:               yes,
				RollbackOnFailure: rollbackOnFailure,
				DiffLines:         cfg.DiffLines,
			})
			if errors.Is(err, update.ErrAborted) {
				output.Info("Update cancelled; nothing was changed")
				return
			}
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&checkout, "checkout", "", "Template revision to update to (default: latest)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without touching anything")
	cmd.Flags().BoolVar(&downgrade, "downgrade", false, "Allow updating to an ancestor revision")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")
	cmd.Flags().BoolVar(&rollbackOnFailure, "rollback-on-failure", false, "Roll back to the backup automatically if the update fails")

	return cmd
}
