// Package update synchronizes a generated project with a newer (or, when
// explicitly requested, older) revision of its template. The orchestrator
// walks a fixed sequence of states; everything before the backup checkpoint
// is read-only, and any failure after it comes paired with a rollback offer.
package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/petrelhq/petrel/internal/answers"
	"github.com/petrelhq/petrel/internal/backup"
	"github.com/petrelhq/petrel/internal/exec"
	"github.com/petrelhq/petrel/internal/output"
	"github.com/petrelhq/petrel/internal/registry"
	"github.com/petrelhq/petrel/internal/render"
	"github.com/petrelhq/petrel/internal/vcs"
	"github.com/petrelhq/petrel/internal/version"
)

// ErrAborted is returned when the user declines to apply the update. Nothing
// has been mutated at that point.
var ErrAborted = errors.New("update aborted")

// diffPreviewLines caps the per-file diff shown before confirmation.
const diffPreviewLines = 40

// Options control a single update run.
type Options struct {
	Checkout          string // ref to update to; empty means the template's HEAD
	DryRun            bool   // stop after reporting what would change
	AllowDowngrade    bool   // permit updating to an ancestor revision
	Yes               bool   // skip confirmation prompts
	RollbackOnFailure bool   // roll back automatically instead of asking
	DiffLines         int    // per-file diff preview cap; 0 keeps the default
}

// Repo is the slice of the VCS client the orchestrator itself needs.
type Repo interface {
	IsRepo(ctx context.Context, root string) bool
	Status(ctx context.Context, root string) (string, error)
	Clone(ctx context.Context, src, ref, dest string) error
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(title string) (bool, error)

func huhConfirm(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("standard input is not a terminal; pass --yes to confirm non-interactively")
	}
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&ok),
	)).Run()
	return ok, err
}

// Orchestrator sequences an update end to end.
type Orchestrator struct {
	repo      Repo
	versions  *version.Resolver
	snapshots render.Snapshotter
	backups   *backup.Manager
	engine    *Engine
	executor  *exec.Executor
	logger    *log.Logger
	confirm   ConfirmFunc
}

// NewOrchestrator wires an orchestrator over a real git client. Tests swap
// individual collaborators for fakes.
func NewOrchestrator(git *vcs.Git, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		repo:      git,
		versions:  version.NewResolver(git),
		snapshots: render.NewWorktreeSnapshotter(git),
		backups:   backup.NewManager(git),
		engine:    NewEngine(git, logger),
		executor:  exec.NewExecutor(&exec.Options{}),
		logger:    logger,
		confirm:   huhConfirm,
	}
}

// Run updates the project at projectRoot. It returns the sync result on
// success; an error return means the project is either untouched (failure
// before the backup checkpoint) or has been offered recovery.
func (o *Orchestrator) Run(ctx context.Context, projectRoot string, opts Options) (*SyncResult, error) {
	doc, err := answers.Load(projectRoot)
	if err != nil {
		return nil, err
	}

	// CleanCheck. A project outside version control can still be updated,
	// but without a backup checkpoint.
	if o.repo.IsRepo(ctx, projectRoot) {
		status, err := o.repo.Status(ctx, projectRoot)
		if err != nil {
			return nil, err
		}
		if status != "" {
			return nil, &DirtyTreeError{Root: projectRoot, Status: status}
		}
	} else {
		output.Warn("project is not under version control; no backup or rollback will be available")
	}

	tmplDir, cleanupTmpl, err := o.materializeTemplate(ctx, doc.SrcPath)
	if err != nil {
		return nil, err
	}
	defer cleanupTmpl()

	// The template manifest supplies the component registry and the
	// post-update tasks. A stale selection fails here, before any mutation.
	reg, tasks, err := registry.Load(tmplDir)
	if err != nil {
		return nil, err
	}
	resolved, err := reg.Resolve(doc.Selected())
	if err != nil {
		return nil, err
	}

	// Fold the closure back into the selection, the same way generation
	// does. Components pulled in by requires edges render enabled and the
	// corrected flags land in the answers file when it is rewritten.
	resolvedSet := make(map[string]bool, len(resolved))
	for _, name := range resolved {
		resolvedSet[name] = true
	}
	for _, name := range append(reg.ComponentNames(), reg.ServiceNames()...) {
		if resolvedSet[name] && !doc.Include[name] {
			output.Info(fmt.Sprintf("enabling %s (required by the current selection)", name))
		}
		doc.Include[name] = resolvedSet[name]
	}

	// VersionResolve.
	current := doc.Commit
	if current == "" {
		return nil, fmt.Errorf("%s has no _commit; cannot determine the project's current revision", answers.FileName)
	}
	target, err := o.versions.ResolveRef(ctx, tmplDir, opts.Checkout)
	if err != nil {
		return nil, err
	}
	if current == target {
		output.Success("project is already up to date")
		return &SyncResult{}, nil
	}

	// DowngradeGuard.
	downgrade, err := o.versions.IsDowngrade(ctx, tmplDir, current, target)
	if err != nil {
		return nil, err
	}
	if downgrade {
		if !opts.AllowDowngrade {
			return nil, &DowngradeError{Current: current, Target: target}
		}
		output.Warn(fmt.Sprintf("downgrading from %s to %s", short(current), short(target)))
	}

	// ChangelogDisplay. Informational; a failure here is not fatal.
	if changelog, err := o.versions.Changelog(ctx, tmplDir, current, target); err == nil && changelog != "" {
		output.Info(fmt.Sprintf("template changes %s..%s:", short(current), short(target)))
		for _, line := range strings.Split(changelog, "\n") {
			output.Step(line)
		}
	} else if err != nil {
		o.logger.Warn("could not read template changelog", "err", err)
	}

	// RenderSnapshots. Both renders are read-only; any failure aborts with
	// the project untouched.
	data := doc.Data()
	oldDir, cleanupOld, err := o.snapshots.Snapshot(ctx, tmplDir, current, data)
	if err != nil {
		return nil, err
	}
	defer cleanupOld()

	newData := doc.Data()
	newData["_commit"] = target
	newDir, cleanupNew, err := o.snapshots.Snapshot(ctx, tmplDir, target, newData)
	if err != nil {
		return nil, err
	}
	defer cleanupNew()

	oldTree, err := LoadTree(oldDir, doc.ProjectSlug)
	if err != nil {
		return nil, err
	}
	newTree, err := LoadTree(newDir, doc.ProjectSlug)
	if err != nil {
		return nil, err
	}

	changed := changedPaths(oldTree, newTree)
	if len(changed) == 0 {
		output.Success("template revisions differ but render identically; recording revision " + short(target))
		if opts.DryRun {
			return &SyncResult{}, nil
		}
		doc.Commit = target
		if err := doc.Save(projectRoot); err != nil {
			return nil, err
		}
		return &SyncResult{}, nil
	}

	o.preview(changed, oldTree, newTree, opts.DiffLines)

	// DryRunExit.
	if opts.DryRun {
		output.Info("dry run; nothing was changed")
		return &SyncResult{}, nil
	}

	if !opts.Yes {
		ok, err := o.confirm(fmt.Sprintf("Update %d file(s) to template revision %s?", len(changed), short(target)))
		if err != nil {
			return nil, fmt.Errorf("reading confirmation: %w", err)
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	// BackupCreate. Empty tag means the project is not a repository.
	tag, err := o.backups.Create(ctx, projectRoot)
	if err != nil {
		return nil, err
	}

	result, err := o.apply(ctx, projectRoot, doc, target, newDir, oldTree, newTree, tasks, tag)
	if err != nil {
		return nil, o.recover(ctx, projectRoot, tag, err, opts)
	}

	// ConflictReport and BackupCleanup.
	o.report(result)
	if err := o.backups.Cleanup(ctx, projectRoot, tag); err != nil {
		o.logger.Warn("could not remove backup tag", "tag", tag, "err", err)
	}
	return result, nil
}

// apply runs the mutating states. Every failure is wrapped in ApplyFailure
// so recovery knows a backup-worthy mutation may have happened.
func (o *Orchestrator) apply(ctx context.Context, projectRoot string, doc *answers.Document, target, newDir string, oldTree, newTree map[string][]byte, tasks []exec.Task, tag string) (*SyncResult, error) {
	// Normalize: install files that are new in the template.
	moved, err := Normalize(newDir, projectRoot, doc.ProjectSlug)
	if err != nil {
		return nil, &ApplyFailure{State: "normalize", BackupTag: tag, Err: err}
	}
	for _, rel := range moved {
		output.Verbose("added " + rel)
	}

	// MergeSync.
	result, err := o.engine.Sync(ctx, projectRoot, oldTree, newTree, tag)
	if err != nil {
		return nil, &ApplyFailure{State: "merge", BackupTag: tag, Err: err}
	}
	result.Synced = mergeSorted(moved, result.Synced)

	// PostTasks: record the new revision, then run the template's
	// post-update commands inside the project.
	doc.Commit = target
	if err := doc.Save(projectRoot); err != nil {
		return nil, &ApplyFailure{State: "post-tasks", BackupTag: tag, Err: err}
	}
	if len(tasks) > 0 {
		runner := exec.NewTaskRegistry()
		for _, task := range tasks {
			if err := runner.Register(task); err != nil {
				return nil, &ApplyFailure{State: "post-tasks", BackupTag: tag, Err: err}
			}
		}
		if err := runner.RunAll(ctx, o.executor.InDir(projectRoot)); err != nil {
			return nil, &ApplyFailure{State: "post-tasks", BackupTag: tag, Err: err}
		}
	}

	return result, nil
}

// recover handles a failure raised by apply. Pre-mutation errors pass
// through; post-mutation errors either roll back (automatically or after
// asking) or leave manual-recovery instructions naming the backup tag.
func (o *Orchestrator) recover(ctx context.Context, projectRoot, tag string, cause error, opts Options) error {
	var apply *ApplyFailure
	if !errors.As(cause, &apply) {
		return cause
	}

	output.Error(apply.Error())
	if tag == "" {
		output.Warn("no backup checkpoint exists; restore the project from your own VCS history or file backups")
		return cause
	}

	rollback := opts.RollbackOnFailure
	if !rollback && !opts.Yes {
		ok, err := o.confirm(fmt.Sprintf("Roll back to backup %s?", tag))
		rollback = err == nil && ok
	}

	if !rollback {
		output.Info(fmt.Sprintf("backup preserved; restore it with 'git reset --hard %s && git clean -fd'", tag))
		return cause
	}

	if err := o.backups.Rollback(ctx, projectRoot, tag); err != nil {
		output.Error(fmt.Sprintf("rollback failed: %v; the backup tag %s is still in place", err, tag))
		return cause
	}
	output.Success("rolled back to " + tag)
	if err := o.backups.Cleanup(ctx, projectRoot, tag); err != nil {
		o.logger.Warn("could not remove backup tag", "tag", tag, "err", err)
	}
	return cause
}

// materializeTemplate produces a local checkout of the template source for
// ref resolution and rendering. A local directory that is already a
// repository is used in place; anything else is cloned to scratch space.
func (o *Orchestrator) materializeTemplate(ctx context.Context, src string) (string, func(), error) {
	if info, err := os.Stat(src); err == nil && info.IsDir() && o.repo.IsRepo(ctx, src) {
		return src, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "petrel-template-")
	if err != nil {
		return "", nil, fmt.Errorf("creating template scratch dir: %w", err)
	}
	if err := o.repo.Clone(ctx, src, "", dir); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("fetching template from %s: %w", src, err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// preview lists the files the update would touch; verbose mode includes a
// capped unified diff per file.
func (o *Orchestrator) preview(changed []string, oldTree, newTree map[string][]byte, maxLines int) {
	if maxLines <= 0 {
		maxLines = diffPreviewLines
	}
	output.Info(fmt.Sprintf("%d file(s) differ:", len(changed)))
	for _, rel := range changed {
		if _, inOld := oldTree[rel]; !inOld {
			output.Step(rel + " (new)")
			continue
		}
		output.Step(rel)
		if output.VerboseEnabled() {
			for _, line := range strings.Split(previewDiff(rel, oldTree[rel], newTree[rel], maxLines), "\n") {
				output.Step("  " + line)
			}
		}
	}
}

// previewDiff renders a unified diff between the two snapshot versions of a
// file, truncated to keep the preview readable.
func previewDiff(rel string, oldContent, newContent []byte, maxLines int) string {
	diff := udiff.Unified("a/"+rel, "b/"+rel, string(oldContent), string(newContent))
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], fmt.Sprintf("... (%d more lines)", len(lines)-maxLines))
	}
	return strings.Join(lines, "\n")
}

// report prints the final sync outcome.
func (o *Orchestrator) report(result *SyncResult) {
	for _, rel := range result.Synced {
		output.Success("synced " + rel)
	}
	for _, rel := range result.Conflicted {
		output.Warn("conflict " + rel)
	}
	for _, failure := range result.ToolFailures {
		output.Warn(failure.Error() + "; the template version was written")
	}
	switch {
	case result.Empty():
		output.Success("project already matches the template")
	case len(result.Conflicted) > 0:
		output.Warn(fmt.Sprintf("%d file(s) need manual conflict resolution", len(result.Conflicted)))
	default:
		output.Success("update complete")
	}
}

// mergeSorted merges two sorted string slices, dropping duplicates.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
