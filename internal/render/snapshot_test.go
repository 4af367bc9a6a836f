package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyCloner fakes the VCS clone by copying a local directory; ref is
// recorded so tests can assert it was honored.
type copyCloner struct {
	src     string
	lastRef string
	fail    bool
}

func (c *copyCloner) Clone(ctx context.Context, src, ref, dest string) error {
	if c.fail {
		return fmt.Errorf("clone failed")
	}
	c.lastRef = ref
	return copyDir(c.src, dest)
}

func copyDir(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, content, info.Mode().Perm())
	})
}

// writeTemplate lays out a minimal template: a wrapper dir named after the
// project_slug variable with one templated file inside.
func writeTemplate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	wrapper := filepath.Join(root, "{{.project_slug}}")
	require.NoError(t, os.MkdirAll(filepath.Join(wrapper, "cmd"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(wrapper, "README.md"),
		[]byte("# {{.project_slug}}\n"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(wrapper, "cmd", "main.go"),
		[]byte("package main // {{.project_slug}}\n"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "petrel.yml"),
		[]byte("components: []\n"), 0644))
	return root
}

func TestSnapshot_RendersPathsAndContent(t *testing.T) {
	tpl := writeTemplate(t)
	s := NewWorktreeSnapshotter(&copyCloner{src: tpl})

	data := map[string]any{"project_slug": "myapp"}
	dir, cleanup, err := s.Snapshot(context.Background(), tpl, "abc123", data)
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(filepath.Join(dir, "myapp", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# myapp\n", string(content))

	content, err = os.ReadFile(filepath.Join(dir, "myapp", "cmd", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main // myapp\n", string(content))

	// The template manifest is metadata, not project content
	_, err = os.Stat(filepath.Join(dir, "petrel.yml"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshot_Deterministic(t *testing.T) {
	tpl := writeTemplate(t)
	s := NewWorktreeSnapshotter(&copyCloner{src: tpl})
	data := map[string]any{"project_slug": "myapp"}

	first, cleanup1, err := s.Snapshot(context.Background(), tpl, "abc123", data)
	require.NoError(t, err)
	defer cleanup1()

	second, cleanup2, err := s.Snapshot(context.Background(), tpl, "abc123", data)
	require.NoError(t, err)
	defer cleanup2()

	a, err := os.ReadFile(filepath.Join(first, "myapp", "README.md"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(second, "myapp", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSnapshot_CloneFailureIsRenderError(t *testing.T) {
	s := NewWorktreeSnapshotter(&copyCloner{fail: true})

	_, cleanup, err := s.Snapshot(context.Background(), "/tpl", "abc123", nil)
	cleanup()
	require.Error(t, err)

	var rerr *RenderError
	assert.True(t, errors.As(err, &rerr))
}

func TestSnapshot_BadTemplateIsRenderError(t *testing.T) {
	tpl := writeTemplate(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(tpl, "{{.project_slug}}", "broken.txt"),
		[]byte("{{.unclosed"), 0644))

	s := NewWorktreeSnapshotter(&copyCloner{src: tpl})

	_, cleanup, err := s.Snapshot(context.Background(), tpl, "abc123", map[string]any{"project_slug": "myapp"})
	cleanup()
	require.Error(t, err)

	var rerr *RenderError
	assert.True(t, errors.As(err, &rerr))
}

func TestSnapshot_BinaryCopiedVerbatim(t *testing.T) {
	tpl := writeTemplate(t)
	binary := []byte{0x89, 'P', 'N', 'G', 0x00, '{', '{', 'x', '}', '}'}
	require.NoError(t, os.WriteFile(
		filepath.Join(tpl, "{{.project_slug}}", "logo.png"), binary, 0644))

	s := NewWorktreeSnapshotter(&copyCloner{src: tpl})

	dir, cleanup, err := s.Snapshot(context.Background(), tpl, "abc123", map[string]any{"project_slug": "myapp"})
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(filepath.Join(dir, "myapp", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, binary, content)
}
