// Package render produces disposable rendered trees of a template at a
// pinned revision. Snapshots are the inputs to the merge engine: OLD (the
// revision the project is on) is the merge base, NEW (the target revision)
// is the incoming change. Nothing in this package ever writes into a live
// project.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/petrelhq/petrel/internal/generator"
	"github.com/petrelhq/petrel/internal/registry"
)

// RenderError wraps any failure while producing a snapshot. It always
// surfaces before the live project is touched.
type RenderError struct {
	Ref string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering template at %s: %v", shortRef(e.Ref), e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func shortRef(ref string) string {
	if len(ref) > 12 {
		return ref[:12]
	}
	return ref
}

// Snapshotter is the templating-engine port. Implementations must be pure
// for a pinned ref: the same (src, ref, data) triple renders byte-identical
// trees.
type Snapshotter interface {
	Snapshot(ctx context.Context, src, ref string, data map[string]any) (dir string, cleanup func(), err error)
}

// Cloner is the slice of the VCS client the worktree snapshotter needs.
type Cloner interface {
	Clone(ctx context.Context, src, ref, dest string) error
}

// WorktreeSnapshotter checks the template out at a ref and renders every
// file through the generator renderer. File and directory names are
// templates too, which is how the project_slug wrapper directory gets its
// real name.
type WorktreeSnapshotter struct {
	git Cloner
}

// NewWorktreeSnapshotter creates a snapshotter over the given VCS client.
func NewWorktreeSnapshotter(git Cloner) *WorktreeSnapshotter {
	return &WorktreeSnapshotter{git: git}
}

// Snapshot renders the template at ref into a fresh temp tree. The cleanup
// function removes the tree; it is safe to call even when err is non-nil.
func (s *WorktreeSnapshotter) Snapshot(ctx context.Context, src, ref string, data map[string]any) (string, func(), error) {
	scratch, err := os.MkdirTemp("", "petrel-checkout-")
	if err != nil {
		return "", func() {}, &RenderError{Ref: ref, Err: err}
	}
	defer os.RemoveAll(scratch)

	checkout := filepath.Join(scratch, "worktree")
	if err := s.git.Clone(ctx, src, ref, checkout); err != nil {
		return "", func() {}, &RenderError{Ref: ref, Err: err}
	}

	out, err := os.MkdirTemp("", "petrel-snapshot-")
	if err != nil {
		return "", func() {}, &RenderError{Ref: ref, Err: err}
	}
	cleanup := func() { os.RemoveAll(out) }

	if err := renderTree(checkout, out, data); err != nil {
		cleanup()
		return "", func() {}, &RenderError{Ref: ref, Err: err}
	}

	return out, cleanup, nil
}

// renderTree renders every template file under srcRoot into destRoot. All
// writes are staged in one transaction so a failed render never leaves a
// partial snapshot. A fresh renderer per tree keeps snapshots independent:
// two revisions of the same template never share a parse cache.
func renderTree(srcRoot, destRoot string, data map[string]any) error {
	renderer := generator.NewRenderer()
	tx := generator.NewTransaction()

	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		// Template metadata never lands in a snapshot
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && rel == registry.ManifestName {
			return nil
		}

		destRel, err := renderPath(renderer, rel, data)
		if err != nil {
			return fmt.Errorf("rendering path '%s': %w", rel, err)
		}
		dest := filepath.Join(destRoot, destRel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0755)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode().Perm()

		// Binary files are copied verbatim
		if !bytes.Contains(content, []byte{0}) {
			content, err = renderer.RenderString(rel, string(content), data)
			if err != nil {
				return fmt.Errorf("rendering '%s': %w", rel, err)
			}
		}

		tx.AddFile(dest, content, mode)
		return nil
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// renderPath renders each path segment, so a directory literally named
// {{.project_slug}} becomes the project's real slug.
func renderPath(renderer *generator.Renderer, rel string, data map[string]any) (string, error) {
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segments {
		if !strings.Contains(seg, "{{") {
			continue
		}
		rendered, err := renderer.RenderString("path:"+seg, seg, data)
		if err != nil {
			return "", err
		}
		segments[i] = string(rendered)
	}
	return filepath.FromSlash(strings.Join(segments, "/")), nil
}
