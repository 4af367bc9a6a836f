// Package vcs wraps the git tool behind a concrete client. Domain packages
// (version, backup, update) declare their own narrow interfaces and accept
// this client, so they stay unit-testable against fakes.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petrelhq/petrel/internal/exec"
)

// Git shells out to the git binary through internal/exec.
type Git struct {
	executor *exec.Executor
}

// NewGit creates a git client.
func NewGit() *Git {
	return &Git{executor: exec.NewExecutor(&exec.Options{})}
}

// NewGitWithExecutor creates a git client around an existing executor
// (used by tests to redirect output).
func NewGitWithExecutor(e *exec.Executor) *Git {
	return &Git{executor: e}
}

// IsRepo reports whether root is inside a git working tree.
func (g *Git) IsRepo(ctx context.Context, root string) bool {
	out, err := g.executor.InDir(root).Output(ctx, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Status returns the porcelain status of the working tree. An empty string
// means the tree is clean.
func (g *Git) Status(ctx context.Context, root string) (string, error) {
	out, err := g.executor.InDir(root).Output(ctx, "git", "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("checking working tree status: %w", err)
	}
	return out, nil
}

// RevParse resolves a tag, branch, or commit-ish spec to a full commit hash.
func (g *Git) RevParse(ctx context.Context, root, spec string) (string, error) {
	out, err := g.executor.InDir(root).Output(ctx, "git", "rev-parse", "--verify", spec+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving '%s': %w", spec, err)
	}
	return out, nil
}

// IsAncestor reports whether ancestor is an ancestor of descendant.
// A commit is considered its own ancestor, matching git merge-base.
func (g *Git) IsAncestor(ctx context.Context, root, ancestor, descendant string) (bool, error) {
	code, err := g.executor.InDir(root).ExitCode(ctx, nil, "git", "merge-base", "--is-ancestor", ancestor, descendant)
	if err != nil {
		return false, fmt.Errorf("ancestry check %s..%s: %w", ancestor, descendant, err)
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("ancestry check %s..%s: git exited %d", ancestor, descendant, code)
	}
}

// Log returns the one-line log between two refs, oldest excluded.
func (g *Git) Log(ctx context.Context, root, from, to string) (string, error) {
	out, err := g.executor.InDir(root).Output(ctx, "git", "log", "--oneline", "--no-decorate", from+".."+to)
	if err != nil {
		return "", fmt.Errorf("reading log %s..%s: %w", from, to, err)
	}
	return out, nil
}

// CreateTag creates a lightweight tag at HEAD.
func (g *Git) CreateTag(ctx context.Context, root, name string) error {
	if _, err := g.executor.InDir(root).Output(ctx, "git", "tag", name); err != nil {
		return fmt.Errorf("creating tag '%s': %w", name, err)
	}
	return nil
}

// DeleteTag deletes a tag. Deleting an absent tag is not an error.
func (g *Git) DeleteTag(ctx context.Context, root, name string) error {
	exists, err := g.TagExists(ctx, root, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := g.executor.InDir(root).Output(ctx, "git", "tag", "-d", name); err != nil {
		return fmt.Errorf("deleting tag '%s': %w", name, err)
	}
	return nil
}

// TagExists reports whether a tag exists in the repository.
func (g *Git) TagExists(ctx context.Context, root, name string) (bool, error) {
	code, err := g.executor.InDir(root).ExitCode(ctx, nil, "git", "show-ref", "--verify", "--quiet", "refs/tags/"+name)
	if err != nil {
		return false, fmt.Errorf("checking tag '%s': %w", name, err)
	}
	return code == 0, nil
}

// HardReset resets the working tree exactly to the given ref and removes
// untracked files, so the restored state matches the ref byte for byte.
func (g *Git) HardReset(ctx context.Context, root, ref string) error {
	dir := g.executor.InDir(root)
	if _, err := dir.Output(ctx, "git", "reset", "--hard", ref); err != nil {
		return fmt.Errorf("resetting to '%s': %w", ref, err)
	}
	if _, err := dir.Output(ctx, "git", "clean", "-fd"); err != nil {
		return fmt.Errorf("cleaning untracked files: %w", err)
	}
	return nil
}

// Clone clones src into dest and checks out ref. Used by the snapshotter to
// obtain an immutable template tree. Remote sources get a progress spinner;
// local ones clone fast enough not to need one.
func (g *Git) Clone(ctx context.Context, src, ref, dest string) error {
	if _, err := os.Stat(src); err == nil {
		if _, err := g.executor.Output(ctx, "git", "clone", "--quiet", src, dest); err != nil {
			return fmt.Errorf("cloning '%s': %w", src, err)
		}
	} else if err := g.executor.RunWithSpinner(ctx, "Cloning "+src, "git", "clone", "--quiet", src, dest); err != nil {
		return fmt.Errorf("cloning '%s': %w", src, err)
	}
	if ref != "" {
		if _, err := g.executor.InDir(dest).Output(ctx, "git", "checkout", "--quiet", ref); err != nil {
			return fmt.Errorf("checking out '%s': %w", ref, err)
		}
	}
	return nil
}

// Head returns the commit hash of HEAD.
func (g *Git) Head(ctx context.Context, root string) (string, error) {
	return g.RevParse(ctx, root, "HEAD")
}

// InitRepo initializes a repository with an initial commit containing the
// current tree. Used after first generation so updates have a baseline.
func (g *Git) InitRepo(ctx context.Context, root string) error {
	dir := g.executor.InDir(root)
	steps := [][]string{
		{"git", "init", "--quiet"},
		{"git", "add", "-A"},
		{"git", "commit", "--quiet", "-m", "Initial project generation"},
	}
	for _, args := range steps {
		if _, err := dir.Output(ctx, args[0], args[1:]...); err != nil {
			return fmt.Errorf("initializing repository: %w", err)
		}
	}
	return nil
}

// MergeFile runs git's line-based 3-way merge primitive. It returns the
// merged content and whether the merge was clean; conflicted output keeps
// the standard <<<<<<< markers. An error means the tool itself failed to
// run, not that the merge conflicted.
func (g *Git) MergeFile(ctx context.Context, base, ours, theirs []byte) (clean bool, merged []byte, err error) {
	dir, err := os.MkdirTemp("", "petrel-merge-")
	if err != nil {
		return false, nil, fmt.Errorf("creating merge scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	paths := map[string][]byte{
		"base":   base,
		"ours":   ours,
		"theirs": theirs,
	}
	for name, content := range paths {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			return false, nil, fmt.Errorf("writing merge input '%s': %w", name, err)
		}
	}

	var out strings.Builder
	code, err := g.executor.ExitCode(ctx, &out,
		"git", "merge-file", "-p",
		"-L", "ours", "-L", "base", "-L", "theirs",
		filepath.Join(dir, "ours"), filepath.Join(dir, "base"), filepath.Join(dir, "theirs"))
	if err != nil {
		return false, nil, fmt.Errorf("running merge tool: %w", err)
	}
	// git merge-file exits with the number of conflicts (capped at 127);
	// negative exits surface as >127 and mean the tool itself failed.
	if code < 0 || code > 127 {
		return false, nil, fmt.Errorf("merge tool failed with status %d", code)
	}

	return code == 0, []byte(out.String()), nil
}
