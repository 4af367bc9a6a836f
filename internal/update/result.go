package update

// SyncResult is the outcome of one update: which files were brought in line
// with the template and which were left with conflict markers for the user
// to resolve. Slices are sorted by path.
type SyncResult struct {
	Synced       []string
	Conflicted   []string
	ToolFailures []*MergeToolFailure
}

// Clean reports whether the update finished without conflicts or degraded
// merges.
func (r *SyncResult) Clean() bool {
	return len(r.Conflicted) == 0 && len(r.ToolFailures) == 0
}

// Empty reports whether the update changed nothing.
func (r *SyncResult) Empty() bool {
	return len(r.Synced) == 0 && len(r.Conflicted) == 0
}
