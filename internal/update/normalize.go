package update

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Normalize hoists rendered files out of the slug-named wrapper directory
// that the render engine emits by convention. Files with no counterpart at
// the project-root-relative path are moved there; files that already exist
// in the project are discarded (the merge engine reconciles those from the
// snapshots, not from the wrapper). The wrapper is removed entirely, so
// merging never sees stray wrapper paths.
//
// It returns the moved paths, slash-separated and sorted.
func Normalize(stageDir, projectRoot, slug string) ([]string, error) {
	wrapper := filepath.Join(stageDir, slug)
	info, err := os.Stat(wrapper)
	if err != nil {
		return nil, fmt.Errorf("rendered output has no %s directory: %w", slug, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rendered output entry %s is not a directory", slug)
	}

	var moved []string
	err = filepath.WalkDir(wrapper, func(path string, d fs.DirEntry, err error) error {
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
		dest := filepath.Join(projectRoot, rel)
		if _, err := os.Stat(dest); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := moveFile(path, dest); err != nil {
			return fmt.Errorf("moving %s: %w", rel, err)
		}
		moved = append(moved, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(wrapper); err != nil {
		return nil, fmt.Errorf("removing wrapper directory: %w", err)
	}

	sort.Strings(moved)
	return moved, nil
}

// moveFile renames src to dest, falling back to copy-and-delete when the
// two paths are on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
