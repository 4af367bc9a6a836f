// Package testutil provides temporary git repositories and project trees
// for tests that exercise real VCS behavior.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// GitRepo is a temporary git repository for testing.
type GitRepo struct {
	Root string
	t    *testing.T
}

// RequireGit skips the test when no git binary is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// NewGitRepo creates a temporary repository with one initial commit.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	RequireGit(t)

	repo := &GitRepo{Root: t.TempDir(), t: t}
	repo.Git("init", "--quiet")
	repo.Git("config", "user.email", "test@example.com")
	repo.Git("config", "user.name", "Test")
	repo.Git("config", "commit.gpgsign", "false")
	repo.WriteFile("README.md", "# test\n")
	repo.Git("add", "-A")
	repo.Git("commit", "--quiet", "-m", "initial")
	return repo
}

// Git runs a git command in the repository and fails the test on error.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes a file relative to the repository root.
func (r *GitRepo) WriteFile(rel, content string) {
	r.t.Helper()

	path := filepath.Join(r.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.t.Fatalf("writing %s: %v", rel, err)
	}
}

// ReadFile reads a file relative to the repository root.
func (r *GitRepo) ReadFile(rel string) string {
	r.t.Helper()

	content, err := os.ReadFile(filepath.Join(r.Root, rel))
	if err != nil {
		r.t.Fatalf("reading %s: %v", rel, err)
	}
	return string(content)
}

// Commit stages everything and commits, returning the new HEAD hash.
func (r *GitRepo) Commit(message string) string {
	r.t.Helper()

	r.Git("add", "-A")
	r.Git("commit", "--quiet", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// Head returns the current HEAD hash.
func (r *GitRepo) Head() string {
	r.t.Helper()
	return r.Git("rev-parse", "HEAD")
}

// FileExists checks whether a file exists relative to the root.
func (r *GitRepo) FileExists(rel string) bool {
	r.t.Helper()
	_, err := os.Stat(filepath.Join(r.Root, rel))
	return err == nil
}
