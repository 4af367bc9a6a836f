// Package output provides styled terminal output for the petrel CLI.
//
// # Overview
//
// All user-facing messages go through this package so the CLI speaks with
// one voice: scaffolding, updates, and migration emission all report the
// same way.
//
// # Usage
//
// Import the package and call the output functions:
//
//	import "github.com/petrelhq/petrel/internal/output"
//
//	output.Success("Project updated")
//	output.Info("Next steps:")
//	output.Step("git diff")
//	output.Error("Update failed")
//
// # Verbose Mode
//
// Enable verbose output for debugging:
//
//	output.SetVerbose(true)
//	output.Verbose("This only prints in verbose mode")
//
// # Styling
//
// The package uses lipgloss for terminal styling, but abstracts these
// details away from callers:
//
//   - Success: green bold
//   - Warn: yellow bold
//   - Error: red bold
//   - Info: cyan
//   - Step: indented gray
//   - Verbose: gray (when enabled)
package output
