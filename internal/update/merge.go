package update

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/petrelhq/petrel/internal/answers"
)

// Merger is the line-based 3-way merge primitive of the VCS tool.
type Merger interface {
	MergeFile(ctx context.Context, base, ours, theirs []byte) (clean bool, merged []byte, err error)
}

// Files petrel never touches during a sync, regardless of what the template
// changed: the answers file and local state that belongs to the user.
var (
	skipFiles = map[string]bool{
		answers.FileName: true,
		".env":           true,
		".DS_Store":      true,
	}
	skipDirs = map[string]bool{
		".git":         true,
		"node_modules": true,
		"vendor":       true,
	}
)

// skipPath reports whether a slash-separated path matches the skip-list.
func skipPath(rel string) bool {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		if skipDirs[seg] {
			return true
		}
		if i == len(segments)-1 && skipFiles[seg] {
			return true
		}
	}
	return false
}

// Engine applies the per-file merge decision to the live project.
type Engine struct {
	merger Merger
	logger *log.Logger
}

// NewEngine creates a merge engine over the given merger.
func NewEngine(m Merger, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{merger: m, logger: logger}
}

// Sync reconciles the project at root with the template change described by
// the OLD and NEW snapshot trees. Only files the template update actually
// changed are considered, and only when they still exist in the project; new
// files were installed by Normalize before this runs.
//
// Per file: when the user never touched it the NEW content is written
// outright. When the template did not change it the user's copy is kept.
// When both sides changed it, a 3-way merge is run with OLD as base; a clean
// merge is written silently, a conflicted merge is written with the standard
// markers left in place for the user to resolve. A merge tool failure
// degrades to overwriting with NEW, logged loudly with the backup tag so the
// user's version stays recoverable.
func (e *Engine) Sync(ctx context.Context, root string, oldTree, newTree map[string][]byte, backupTag string) (*SyncResult, error) {
	paths := make([]string, 0, len(newTree))
	for rel := range newTree {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	result := &SyncResult{}
	for _, rel := range paths {
		if skipPath(rel) {
			continue
		}
		oldContent, inOld := oldTree[rel]
		if !inOld {
			// New in the template; Normalize already handled it.
			continue
		}
		newContent := newTree[rel]
		if bytes.Equal(oldContent, newContent) {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(rel))
		current, err := os.ReadFile(target)
		if err != nil {
			if os.IsNotExist(err) {
				// The user deleted it; respect that.
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}

		switch {
		case bytes.Equal(current, newContent):
			// Already in the target state.
		case bytes.Equal(oldContent, current):
			if err := writeInPlace(target, newContent); err != nil {
				return nil, err
			}
			result.Synced = append(result.Synced, rel)
		default:
			clean, merged, err := e.merger.MergeFile(ctx, oldContent, current, newContent)
			if err != nil {
				failure := &MergeToolFailure{Path: rel, Err: err}
				result.ToolFailures = append(result.ToolFailures, failure)
				tag := backupTag
				if tag == "" {
					tag = "none"
				}
				e.logger.Warn("merge tool failed; overwriting with the template version",
					"file", rel, "backup", tag, "err", err)
				if err := writeInPlace(target, newContent); err != nil {
					return nil, err
				}
				result.Synced = append(result.Synced, rel)
				continue
			}
			if err := writeInPlace(target, merged); err != nil {
				return nil, err
			}
			if clean {
				result.Synced = append(result.Synced, rel)
			} else {
				e.logger.Warn("conflict markers written", "file", rel)
				result.Conflicted = append(result.Conflicted, rel)
			}
		}
	}

	return result, nil
}

// writeInPlace replaces a file's content while keeping its mode.
func writeInPlace(path string, content []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadTree reads every file under the slug wrapper of a rendered snapshot
// into memory, keyed by slash-separated wrapper-relative path. Snapshots are
// whole rendered projects, small by construction.
func LoadTree(snapshotDir, slug string) (map[string][]byte, error) {
	wrapper := filepath.Join(snapshotDir, slug)
	if _, err := os.Stat(wrapper); err != nil {
		return nil, fmt.Errorf("rendered snapshot has no %s directory: %w", slug, err)
	}

	tree := make(map[string][]byte)
	err := filepath.WalkDir(wrapper, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(wrapper, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// changedPaths returns the sorted paths the template update touches: files
// added between the snapshots or whose content differs.
func changedPaths(oldTree, newTree map[string][]byte) []string {
	var changed []string
	for rel, newContent := range newTree {
		if skipPath(rel) {
			continue
		}
		oldContent, inOld := oldTree[rel]
		if !inOld || !bytes.Equal(oldContent, newContent) {
			changed = append(changed, rel)
		}
	}
	sort.Strings(changed)
	return changed
}
