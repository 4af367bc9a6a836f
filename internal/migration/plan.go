package migration

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/petrelhq/petrel/internal/generator"
)

// Plan orders the given tables by foreign-key dependency and returns the
// file operations that would emit one migration per table under dir.
// Nothing is written until the operations are executed.
func Plan(tables []TableSpec, dir string, base time.Time) ([]generator.Operation, error) {
	ordered, err := sortByDependency(tables)
	if err != nil {
		return nil, err
	}

	specs := make([]MigrationSpec, 0, len(ordered))
	for i, table := range ordered {
		number := NumberWithOffset(base, i)
		spec := MigrationSpec{
			Number: number,
			Name:   "create_" + table.Name,
			Up:     upSQL(table),
			Down:   downSQL(table),
		}
		if i > 0 {
			spec.Predecessor = specs[i-1].Number
		}
		specs = append(specs, spec)
	}

	if err := ValidateChain(specs); err != nil {
		return nil, fmt.Errorf("planned migrations violate chain invariant: %w", err)
	}

	var ops []generator.Operation
	for _, spec := range specs {
		up, down := Filenames(spec.Number, spec.Name)
		ops = append(ops,
			&generator.WriteFileOp{Path: filepath.Join(dir, up), Content: []byte(spec.Up), Mode: 0644},
			&generator.WriteFileOp{Path: filepath.Join(dir, down), Content: []byte(spec.Down), Mode: 0644},
		)
	}
	return ops, nil
}

// sortByDependency orders tables so referenced tables come before their
// referents. Ties break on name for deterministic output.
func sortByDependency(tables []TableSpec) ([]TableSpec, error) {
	byName := make(map[string]TableSpec, len(tables))
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table '%s'", t.Name)
		}
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	sort.Strings(names)

	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			target, _, ok := strings.Cut(fk.References, ".")
			if !ok {
				return nil, fmt.Errorf("table '%s': foreign key reference '%s' is not table.column", t.Name, fk.References)
			}
			// References to tables outside this batch are assumed to exist
			if _, known := byName[target]; known && target != t.Name {
				deps[t.Name] = append(deps[t.Name], target)
			}
		}
	}

	var ordered []TableSpec
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if visiting[name] {
			return fmt.Errorf("circular foreign-key dependency involving table '%s'", name)
		}
		if visited[name] {
			return nil
		}

		visiting[name] = true
		targets := append([]string(nil), deps[name]...)
		sort.Strings(targets)
		for _, dep := range targets {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[name] = false
		visited[name] = true
		ordered = append(ordered, byName[name])
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}

func upSQL(t TableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)

	var lines []string
	for _, col := range t.Columns {
		line := "    " + col.Name + " " + col.Type
		if col.Primary {
			line += " PRIMARY KEY"
		}
		if !col.Nullable && !col.Primary {
			line += " NOT NULL"
		}
		if col.Default != "" {
			line += " DEFAULT " + col.Default
		}
		lines = append(lines, line)
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s", fk.Column, referenceTarget(fk.References)))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);\n")
	return b.String()
}

func downSQL(t TableSpec) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", t.Name)
}

// referenceTarget rewrites "users.id" as "users (id)".
func referenceTarget(ref string) string {
	table, column, ok := strings.Cut(ref, ".")
	if !ok {
		return ref
	}
	return fmt.Sprintf("%s (%s)", table, column)
}
