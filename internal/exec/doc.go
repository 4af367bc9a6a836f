// Package exec runs external tools (git, post-update task commands) with
// consistent UX and test hooks.
//
// The Executor wraps os/exec with context cancellation, working-directory
// and environment control, captured or streamed output, and an optional
// spinner for long-running commands.
//
// # Usage
//
//	e := exec.NewExecutor(&exec.Options{Dir: projectRoot})
//	out, err := e.Output(ctx, "git", "status", "--porcelain")
//
// Commands that talk to the user directly stream instead:
//
//	err := e.RunWithSpinner(ctx, "Installing dependencies", "go", "mod", "tidy")
//
// # Post-update tasks
//
// The TaskRegistry holds named tasks to run after a successful sync. Tasks
// are plain commands with per-task timeouts; the registry keeps the update
// orchestrator decoupled from what those tasks are.
package exec
