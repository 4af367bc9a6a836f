// Package scaffold generates a new project from a template: the first
// render, selection of optional components, the answers file that later
// updates depend on, and the initial migration chain.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/petrelhq/petrel/internal/answers"
	"github.com/petrelhq/petrel/internal/exec"
	"github.com/petrelhq/petrel/internal/generator"
	"github.com/petrelhq/petrel/internal/migration"
	"github.com/petrelhq/petrel/internal/output"
	"github.com/petrelhq/petrel/internal/registry"
	"github.com/petrelhq/petrel/internal/render"
	"github.com/petrelhq/petrel/internal/update"
	"github.com/petrelhq/petrel/internal/vcs"
	"github.com/petrelhq/petrel/internal/version"
)

// Options control one generation run.
type Options struct {
	Template string   // template source, a local path or clone URL
	Checkout string   // revision to generate from; empty means the template's HEAD
	Include  []string // selected components and services
	NoInput  bool     // never prompt; an empty Include stays empty
	SkipGit  bool     // do not initialize a repository in the new project
}

// Repo is the slice of the VCS client the scaffolder needs.
type Repo interface {
	IsRepo(ctx context.Context, root string) bool
	Clone(ctx context.Context, src, ref, dest string) error
	InitRepo(ctx context.Context, root string) error
}

// SelectFunc asks the user to pick from the template's optional modules.
type SelectFunc func(title string, names []string) ([]string, error)

func huhSelect(title string, names []string) ([]string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("standard input is not a terminal; pass --include or --no-input to select non-interactively")
	}
	opts := make([]huh.Option[string], len(names))
	for i, name := range names {
		opts[i] = huh.NewOption(name, name)
	}
	var selected []string
	err := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title(title).
			Options(opts...).
			Value(&selected),
	)).Run()
	return selected, err
}

// Generator performs first generation.
type Generator struct {
	repo      Repo
	versions  *version.Resolver
	snapshots render.Snapshotter
	executor  *exec.Executor
	logger    *log.Logger
	selectFn  SelectFunc
	now       func() time.Time
}

// NewGenerator wires a generator over a real git client.
func NewGenerator(git *vcs.Git, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{
		repo:      git,
		versions:  version.NewResolver(git),
		snapshots: render.NewWorktreeSnapshotter(git),
		executor:  exec.NewExecutor(&exec.Options{}),
		logger:    logger,
		selectFn:  huhSelect,
		now:       time.Now,
	}
}

// Run generates a new project in targetDir. The directory must not exist
// yet or must be empty.
func (g *Generator) Run(ctx context.Context, targetDir string, opts Options) error {
	target, err := filepath.Abs(targetDir)
	if err != nil {
		return err
	}
	if err := checkTarget(target); err != nil {
		return err
	}
	if opts.Template == "" {
		return fmt.Errorf("no template source given")
	}

	tmplDir, cleanupTmpl, err := g.materializeTemplate(ctx, opts.Template)
	if err != nil {
		return err
	}
	defer cleanupTmpl()

	reg, tasks, err := registry.Load(tmplDir)
	if err != nil {
		return err
	}

	selection := opts.Include
	catalog := append(reg.ComponentNames(), reg.ServiceNames()...)
	if len(selection) == 0 && len(catalog) > 0 && !opts.NoInput {
		selection, err = g.selectFn("Select components and services", catalog)
		if err != nil {
			return fmt.Errorf("reading selection: %w", err)
		}
	}
	resolved, err := reg.Resolve(selection)
	if err != nil {
		return err
	}

	ref, err := g.versions.ResolveRef(ctx, tmplDir, opts.Checkout)
	if err != nil {
		return err
	}

	slug := filepath.Base(target)
	doc := answers.New(opts.Template, ref, slug)
	resolvedSet := make(map[string]bool, len(resolved))
	for _, name := range resolved {
		resolvedSet[name] = true
	}
	for _, name := range catalog {
		doc.Include[name] = resolvedSet[name]
	}

	snapDir, cleanupSnap, err := g.snapshots.Snapshot(ctx, tmplDir, ref, doc.Data())
	if err != nil {
		return err
	}
	defer cleanupSnap()

	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	moved, err := update.Normalize(snapDir, target, slug)
	if err != nil {
		return err
	}
	for _, rel := range moved {
		output.Verbose("created " + rel)
	}

	if err := doc.Save(target); err != nil {
		return err
	}

	if tables := reg.Tables(resolved); len(tables) > 0 {
		ops, err := migration.Plan(tables, filepath.Join(target, "migrations"), g.now())
		if err != nil {
			return err
		}
		if err := generator.Execute(ctx, ops); err != nil {
			return err
		}
	}

	if !opts.SkipGit && !g.repo.IsRepo(ctx, target) {
		if err := g.repo.InitRepo(ctx, target); err != nil {
			return err
		}
	}

	if len(tasks) > 0 {
		runner := exec.NewTaskRegistry()
		for _, task := range tasks {
			if err := runner.Register(task); err != nil {
				return err
			}
		}
		if err := runner.RunAll(ctx, g.executor.InDir(target)); err != nil {
			return err
		}
	}

	output.Success(fmt.Sprintf("generated %s from %s at %s", slug, opts.Template, ref))
	return nil
}

// checkTarget accepts a missing or empty directory and rejects anything
// else, so generation never clobbers existing work.
func checkTarget(target string) error {
	entries, err := os.ReadDir(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", target, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s already exists and is not empty", target)
	}
	return nil
}

// materializeTemplate mirrors the update flow: a local repository is used
// in place, anything else is cloned to scratch space.
func (g *Generator) materializeTemplate(ctx context.Context, src string) (string, func(), error) {
	if info, err := os.Stat(src); err == nil && info.IsDir() && g.repo.IsRepo(ctx, src) {
		return src, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "petrel-template-")
	if err != nil {
		return "", nil, fmt.Errorf("creating template scratch dir: %w", err)
	}
	if err := g.repo.Clone(ctx, src, "", dir); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("fetching template from %s: %w", src, err)
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
