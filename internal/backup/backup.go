// Package backup creates and restores checkpoints in a project's git
// history before mutating updates.
package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petrelhq/petrel/internal/output"
)

// TagPrefix namespaces every checkpoint tag petrel creates.
const TagPrefix = "petrel-backup-"

// Tagger is the slice of the VCS client the backup manager needs.
type Tagger interface {
	IsRepo(ctx context.Context, root string) bool
	CreateTag(ctx context.Context, root, name string) error
	DeleteTag(ctx context.Context, root, name string) error
	TagExists(ctx context.Context, root, name string) (bool, error)
	HardReset(ctx context.Context, root, ref string) error
}

// Manager creates, restores, and cleans up backup checkpoints.
type Manager struct {
	git Tagger
	now func() time.Time
}

// NewManager creates a backup manager over the given VCS client.
func NewManager(git Tagger) *Manager {
	return &Manager{git: git, now: time.Now}
}

// tagName builds a collision-resistant checkpoint name. The timestamp makes
// tags sortable; the uuid fragment keeps two backups in the same second
// from colliding.
func (m *Manager) tagName() string {
	stamp := m.now().UTC().Format("20060102-150405")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return TagPrefix + stamp + "-" + suffix
}

// Create tags the current project state and returns the tag name. Backups
// are best-effort safety, not a hard precondition: a tree that isn't
// git-tracked yields an empty tag and no error, and the caller decides how
// that changes recovery options later.
func (m *Manager) Create(ctx context.Context, root string) (string, error) {
	if !m.git.IsRepo(ctx, root) {
		output.Warn("Project is not tracked by git; continuing without a backup checkpoint")
		return "", nil
	}

	tag := m.tagName()
	if err := m.git.CreateTag(ctx, root, tag); err != nil {
		output.Warn(fmt.Sprintf("Could not create backup checkpoint: %v", err))
		return "", nil
	}
	output.Verbose(fmt.Sprintf("Created backup checkpoint %s", tag))
	return tag, nil
}

// Rollback hard-resets the project to the tagged state. The restore is
// exact: tracked files match the tag byte for byte and untracked leftovers
// are removed.
func (m *Manager) Rollback(ctx context.Context, root, tag string) error {
	if tag == "" {
		return fmt.Errorf("no backup tag to roll back to")
	}
	exists, err := m.git.TagExists(ctx, root, tag)
	if err != nil {
		return fmt.Errorf("checking backup tag: %w", err)
	}
	if !exists {
		return fmt.Errorf("backup tag '%s' no longer exists", tag)
	}
	if err := m.git.HardReset(ctx, root, tag); err != nil {
		return fmt.Errorf("restoring backup '%s': %w", tag, err)
	}
	return nil
}

// Cleanup deletes a checkpoint tag. Idempotent: an already-deleted tag is
// a no-op, and an empty tag means there was never a backup.
func (m *Manager) Cleanup(ctx context.Context, root, tag string) error {
	if tag == "" {
		return nil
	}
	return m.git.DeleteTag(ctx, root, tag)
}
