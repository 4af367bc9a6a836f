// Package version maps version specifiers to concrete template revisions
// and detects downgrades.
package version

import (
	"context"
	"fmt"
)

// RefReader is the slice of the VCS client the resolver needs.
type RefReader interface {
	RevParse(ctx context.Context, root, spec string) (string, error)
	IsAncestor(ctx context.Context, root, ancestor, descendant string) (bool, error)
	Log(ctx context.Context, root, from, to string) (string, error)
}

// Resolver resolves version specs against a template repository clone.
type Resolver struct {
	git RefReader
}

// NewResolver creates a version resolver over the given VCS client.
func NewResolver(git RefReader) *Resolver {
	return &Resolver{git: git}
}

// ResolveRef maps a tag, branch, or commit-like spec to a concrete commit
// hash usable for rendering. Unresolvable specs fail loudly; there is no
// silent default.
func (r *Resolver) ResolveRef(ctx context.Context, root, spec string) (string, error) {
	if spec == "" {
		spec = "HEAD"
	}
	ref, err := r.git.RevParse(ctx, root, spec)
	if err != nil {
		return "", fmt.Errorf("version spec '%s' does not resolve to a revision: %w", spec, err)
	}
	return ref, nil
}

// IsDowngrade reports whether moving from current to target goes backwards:
// true iff target is a strict ancestor of current. This is an ancestry test
// on the revision graph, not a semantic-version comparison, so it works for
// untagged commits too.
func (r *Resolver) IsDowngrade(ctx context.Context, root, current, target string) (bool, error) {
	if current == target {
		return false, nil
	}
	ancestor, err := r.git.IsAncestor(ctx, root, target, current)
	if err != nil {
		return false, err
	}
	return ancestor, nil
}

// Changelog returns the human-readable log between two refs for display.
// Failure to compute it is informational only; callers get an empty string
// and the underlying error to log if they care.
func (r *Resolver) Changelog(ctx context.Context, root, from, to string) (string, error) {
	log, err := r.git.Log(ctx, root, from, to)
	if err != nil {
		return "", err
	}
	return log, nil
}
