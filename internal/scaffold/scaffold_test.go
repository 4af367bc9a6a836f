package scaffold

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/petrelhq/petrel/internal/answers"
	"github.com/petrelhq/petrel/internal/exec"
	"github.com/petrelhq/petrel/internal/registry"
	"github.com/petrelhq/petrel/internal/version"
)

type fakeRepo struct {
	repos map[string]bool
	inits []string
}

func (r *fakeRepo) IsRepo(_ context.Context, root string) bool { return r.repos[root] }

func (r *fakeRepo) Clone(context.Context, string, string, string) error { return nil }

func (r *fakeRepo) InitRepo(_ context.Context, root string) error {
	r.inits = append(r.inits, root)
	return nil
}

type fakeRefs struct{ head string }

func (r *fakeRefs) RevParse(_ context.Context, _, spec string) (string, error) {
	if spec == "HEAD" {
		return r.head, nil
	}
	return spec, nil
}

func (r *fakeRefs) IsAncestor(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (r *fakeRefs) Log(context.Context, string, string, string) (string, error) {
	return "", nil
}

// fakeSnapshots writes the tree for the requested ref under the wrapper
// directory named by the project_slug template datum.
type fakeSnapshots struct {
	trees map[string]map[string]string
}

func (f *fakeSnapshots) Snapshot(_ context.Context, _, ref string, data map[string]any) (string, func(), error) {
	files, ok := f.trees[ref]
	if !ok {
		return "", nil, fmt.Errorf("no snapshot tree for ref %s", ref)
	}
	slug, _ := data["project_slug"].(string)
	dir, err := os.MkdirTemp("", "petrel-fake-snapshot-")
	if err != nil {
		return "", nil, err
	}
	for rel, content := range files {
		path := filepath.Join(dir, slug, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return "", nil, err
		}
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

func writeTemplate(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, registry.ManifestName), []byte(manifest), 0644))
	}
	return dir
}

func newTestGenerator(repo *fakeRepo, refs version.RefReader, snaps *fakeSnapshots) *Generator {
	return &Generator{
		repo:      repo,
		versions:  version.NewResolver(refs),
		snapshots: snaps,
		executor:  exec.NewExecutor(&exec.Options{}),
		logger:    log.New(io.Discard),
		selectFn: func(string, []string) ([]string, error) {
			return nil, fmt.Errorf("unexpected prompt")
		},
		now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

const testManifest = `
components:
  - name: postgres
    category: database
    tables:
      - name: users
        columns:
          - name: id
            type: uuid
            primary: true
services:
  - name: auth
    required_components: [postgres]
`

func TestRunGeneratesProject(t *testing.T) {
	tmpl := writeTemplate(t, testManifest)
	repo := &fakeRepo{repos: map[string]bool{tmpl: true}}
	snaps := &fakeSnapshots{trees: map[string]map[string]string{
		"c1": {"README.md": "# demo", "main.go": "package main"},
	}}

	target := filepath.Join(t.TempDir(), "demo")
	g := newTestGenerator(repo, &fakeRefs{head: "c1"}, snaps)

	err := g.Run(context.Background(), target, Options{
		Template: tmpl,
		Include:  []string{"auth"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo", string(content))

	doc, err := answers.Load(target)
	require.NoError(t, err)
	assert.Equal(t, tmpl, doc.SrcPath)
	assert.Equal(t, "c1", doc.Commit)
	assert.Equal(t, "demo", doc.ProjectSlug)
	assert.Equal(t, []string{"auth", "postgres"}, doc.Selected())

	entries, err := os.ReadDir(filepath.Join(target, "migrations"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Name(), "create_users")

	assert.Equal(t, []string{target}, repo.inits)
}

func TestRunRejectsNonEmptyTarget(t *testing.T) {
	tmpl := writeTemplate(t, "")
	repo := &fakeRepo{repos: map[string]bool{tmpl: true}}

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep.txt"), []byte("x"), 0644))

	g := newTestGenerator(repo, &fakeRefs{head: "c1"}, &fakeSnapshots{})
	err := g.Run(context.Background(), target, Options{Template: tmpl, NoInput: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}

func TestRunRejectsUnknownSelection(t *testing.T) {
	tmpl := writeTemplate(t, testManifest)
	repo := &fakeRepo{repos: map[string]bool{tmpl: true}}

	g := newTestGenerator(repo, &fakeRefs{head: "c1"}, &fakeSnapshots{})
	err := g.Run(context.Background(), filepath.Join(t.TempDir(), "demo"), Options{
		Template: tmpl,
		Include:  []string{"mystery"},
	})

	var invalid *registry.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestRunSkipsGitWhenAsked(t *testing.T) {
	tmpl := writeTemplate(t, "")
	repo := &fakeRepo{repos: map[string]bool{tmpl: true}}
	snaps := &fakeSnapshots{trees: map[string]map[string]string{
		"c1": {"README.md": "# demo"},
	}}

	target := filepath.Join(t.TempDir(), "demo")
	g := newTestGenerator(repo, &fakeRefs{head: "c1"}, snaps)

	err := g.Run(context.Background(), target, Options{Template: tmpl, NoInput: true, SkipGit: true})
	require.NoError(t, err)
	assert.Empty(t, repo.inits)
}

func TestHuhSelectRequiresTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("stdin is a terminal")
	}

	_, err := huhSelect("pick", []string{"postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--no-input")
}

func TestRunPromptsWhenSelectionOmitted(t *testing.T) {
	tmpl := writeTemplate(t, testManifest)
	repo := &fakeRepo{repos: map[string]bool{tmpl: true}}
	snaps := &fakeSnapshots{trees: map[string]map[string]string{
		"c1": {"README.md": "# demo"},
	}}

	target := filepath.Join(t.TempDir(), "demo")
	g := newTestGenerator(repo, &fakeRefs{head: "c1"}, snaps)

	var prompted []string
	g.selectFn = func(_ string, names []string) ([]string, error) {
		prompted = names
		return []string{"postgres"}, nil
	}

	err := g.Run(context.Background(), target, Options{Template: tmpl})
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "auth"}, prompted)

	doc, err := answers.Load(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres"}, doc.Selected())
}
