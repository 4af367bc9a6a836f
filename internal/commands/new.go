package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petrelhq/petrel/internal/output"
	"github.com/petrelhq/petrel/internal/scaffold"
	"github.com/petrelhq/petrel/internal/vcs"
)

// NewCmd creates and returns the 'new' command for generating projects.
func NewCmd() *cobra.Command {
	var (
		template string
		checkout string
		include  []string
		noInput  bool
		skipGit  bool
	)

	cmd := &cobra.Command{
		Use:   "new [directory]",
		Short: "Generate a new project from a template",
		Long: `Generates a project from a template repository.

The template's optional components and services are resolved into a
consistent selection, the project is rendered at the requested revision,
and the choices are recorded in .petrel.yml so the project can be
updated later.

Example:
  petrel new myapp --template https://example.com/starter.git --include postgres`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if template == "" {
				cfg, err := LoadToolConfig()
				if err != nil {
					output.Error(err.Error())
					os.Exit(1)
				}
				template = cfg.DefaultTemplate
			}

			gen := scaffold.NewGenerator(vcs.NewGit(), commandLogger(cmd))
			err := gen.Run(cmd.Context(), args[0], scaffold.Options{
				Template: template,
				Checkout: checkout,
				Include:  include,
				NoInput:  noInput,
				SkipGit:  skipGit,
			})
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Info("Next steps:")
			output.Step(fmt.Sprintf("cd %s", args[0]))
			output.Step("petrel check  # See when the template moves forward")
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Template source (path or clone URL)")
	cmd.Flags().StringVar(&checkout, "checkout", "", "Template revision to generate from (default: latest)")
	cmd.Flags().StringArrayVar(&include, "include", nil, "Component or service to include (repeatable)")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Never prompt; use only the --include selection")
	cmd.Flags().BoolVar(&skipGit, "skip-git", false, "Do not initialize a git repository")

	return cmd
}
