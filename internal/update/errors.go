package update

import "fmt"

// DirtyTreeError means the project working tree has uncommitted changes.
// An update needs a known baseline, so nothing is mutated.
type DirtyTreeError struct {
	Root   string
	Status string
}

func (e *DirtyTreeError) Error() string {
	return fmt.Sprintf("working tree at %s has uncommitted changes; commit or stash them first", e.Root)
}

// DowngradeError means the requested revision is a strict ancestor of the
// revision the project is already on.
type DowngradeError struct {
	Current string
	Target  string
}

func (e *DowngradeError) Error() string {
	return fmt.Sprintf("revision %s is an ancestor of the project's current revision %s; pass --downgrade to apply it anyway", short(e.Target), short(e.Current))
}

// MergeToolFailure records a file whose 3-way merge could not be run at all.
// The file is overwritten with the template version instead; the failure is
// collected into the final report rather than aborting the update.
type MergeToolFailure struct {
	Path string
	Err  error
}

func (e *MergeToolFailure) Error() string {
	return fmt.Sprintf("merge tool failed for %s: %v", e.Path, e.Err)
}

func (e *MergeToolFailure) Unwrap() error { return e.Err }

// ApplyFailure wraps an error raised after the working tree has started
// mutating. It names the state that failed and the backup tag (empty when no
// backup exists) so recovery can be offered.
type ApplyFailure struct {
	State     string
	BackupTag string
	Err       error
}

func (e *ApplyFailure) Error() string {
	return fmt.Sprintf("update failed during %s: %v", e.State, e.Err)
}

func (e *ApplyFailure) Unwrap() error { return e.Err }

func short(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
