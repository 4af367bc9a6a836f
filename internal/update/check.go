package update

import (
	"context"

	"github.com/petrelhq/petrel/internal/answers"
)

// CheckResult describes whether a template update is available.
type CheckResult struct {
	Current   string
	Target    string
	Changelog string
}

// UpToDate reports whether the project already sits on the template's
// latest revision.
func (r *CheckResult) UpToDate() bool { return r.Current == r.Target }

// Check resolves the template's latest revision against the project's
// current one. It is entirely read-only.
func (o *Orchestrator) Check(ctx context.Context, projectRoot string) (*CheckResult, error) {
	doc, err := answers.Load(projectRoot)
	if err != nil {
		return nil, err
	}

	tmplDir, cleanup, err := o.materializeTemplate(ctx, doc.SrcPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	target, err := o.versions.ResolveRef(ctx, tmplDir, "")
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Current: doc.Commit, Target: target}
	if !result.UpToDate() {
		if changelog, err := o.versions.Changelog(ctx, tmplDir, doc.Commit, target); err == nil {
			result.Changelog = changelog
		} else {
			o.logger.Warn("could not read template changelog", "err", err)
		}
	}
	return result, nil
}
