package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verboseMode bool
)

// SetVerbose enables or disables verbose output for debugging.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// VerboseEnabled reports whether verbose mode is on.
func VerboseEnabled() bool {
	return verboseMode
}

// Success prints a success message in bold green.
// Use this for completed operations.
//
// Example:
//
//	output.Success("Updated project to v2.1.0")
func Success(msg string) {
	fmt.Println(successStyle.Render("✓ " + msg))
}

// Warn prints a warning message in bold yellow.
// Use this for risky-but-continuing situations, like a failed backup
// or a merge-tool fallback.
func Warn(msg string) {
	fmt.Println(warnStyle.Render("⚠ " + msg))
}

// Error prints an error message in bold red.
// Use this for failures that need user attention.
//
// Example:
//
//	output.Error("Update failed: working tree is dirty")
func Error(msg string) {
	fmt.Println(errorStyle.Render("✗ " + msg))
}

// Info prints an informational message in cyan.
// Use this for status updates or explanations.
func Info(msg string) {
	fmt.Println(infoStyle.Render("• " + msg))
}

// Step prints an indented step message in gray.
// Use this for actionable next steps or sub-items.
//
// Example:
//
//	output.Step("cd myapp")
//	output.Step("git diff")
func Step(msg string) {
	fmt.Println(stepStyle.Render("   " + msg))
}

// Verbose prints a debug message only if verbose mode is enabled.
func Verbose(msg string) {
	if verboseMode {
		fmt.Println(stepStyle.Render("» " + msg))
	}
}
