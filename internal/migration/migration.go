// Package migration turns declarative table descriptions into ordered SQL
// migration files. Emission is lazy: callers get a plan of file operations
// and decide when (or whether) to execute it.
package migration

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnSpec describes one table column.
type ColumnSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	Primary  bool   `yaml:"primary"`
	Default  string `yaml:"default"`
}

// ForeignKeySpec describes a reference to another table's column, written
// as "table.column".
type ForeignKeySpec struct {
	Column     string `yaml:"column"`
	References string `yaml:"references"`
}

// TableSpec is a declarative schema description contributed by a component.
type TableSpec struct {
	Name        string           `yaml:"name"`
	Columns     []ColumnSpec     `yaml:"columns"`
	ForeignKeys []ForeignKeySpec `yaml:"foreign_keys"`
}

// MigrationSpec is one emitted migration. Predecessor is the Number of the
// migration that must run before this one; empty for the chain root.
type MigrationSpec struct {
	Number      string
	Name        string
	Predecessor string
	Up          string
	Down        string
}

// ValidateChain checks the single-unbranched-chain invariant: exactly one
// migration has no predecessor, every predecessor pointer names an existing
// migration, and no two migrations share a predecessor.
func ValidateChain(specs []MigrationSpec) error {
	if len(specs) == 0 {
		return nil
	}

	byNumber := make(map[string]MigrationSpec, len(specs))
	for _, s := range specs {
		if _, dup := byNumber[s.Number]; dup {
			return fmt.Errorf("duplicate migration number %s", s.Number)
		}
		byNumber[s.Number] = s
	}

	var roots []string
	successors := make(map[string]string) // predecessor -> follower
	for _, s := range specs {
		if s.Predecessor == "" {
			roots = append(roots, s.Number)
			continue
		}
		if _, ok := byNumber[s.Predecessor]; !ok {
			return fmt.Errorf("migration %s points at missing predecessor %s", s.Number, s.Predecessor)
		}
		if prev, taken := successors[s.Predecessor]; taken {
			return fmt.Errorf("migrations %s and %s both follow %s; chain must not branch", prev, s.Number, s.Predecessor)
		}
		successors[s.Predecessor] = s.Number
	}

	if len(roots) == 0 {
		return fmt.Errorf("no root migration: every migration names a predecessor")
	}
	if len(roots) > 1 {
		sort.Strings(roots)
		return fmt.Errorf("multiple root migrations: %s", strings.Join(roots, ", "))
	}

	// Walk the chain from the root; it must reach every migration.
	seen := 1
	for cur := roots[0]; ; seen++ {
		next, ok := successors[cur]
		if !ok {
			break
		}
		cur = next
	}
	if seen < len(specs) {
		return fmt.Errorf("migration chain is disconnected: reached %d of %d migrations", seen, len(specs))
	}

	return nil
}
