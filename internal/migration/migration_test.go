package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChain_Valid(t *testing.T) {
	specs := []MigrationSpec{
		{Number: "001", Name: "a"},
		{Number: "002", Name: "b", Predecessor: "001"},
		{Number: "003", Name: "c", Predecessor: "002"},
	}
	assert.NoError(t, ValidateChain(specs))
}

func TestValidateChain_Empty(t *testing.T) {
	assert.NoError(t, ValidateChain(nil))
}

func TestValidateChain_NoRoot(t *testing.T) {
	specs := []MigrationSpec{
		{Number: "001", Predecessor: "002"},
		{Number: "002", Predecessor: "001"},
	}
	err := ValidateChain(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root")
}

func TestValidateChain_TwoRoots(t *testing.T) {
	specs := []MigrationSpec{
		{Number: "001"},
		{Number: "002"},
	}
	err := ValidateChain(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple root")
}

func TestValidateChain_Branch(t *testing.T) {
	specs := []MigrationSpec{
		{Number: "001"},
		{Number: "002", Predecessor: "001"},
		{Number: "003", Predecessor: "001"},
	}
	err := ValidateChain(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branch")
}

func TestValidateChain_MissingPredecessor(t *testing.T) {
	specs := []MigrationSpec{
		{Number: "001"},
		{Number: "002", Predecessor: "999"},
	}
	err := ValidateChain(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing predecessor")
}

func TestNumberWithOffset(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	assert.Equal(t, "20260314092653", NumberWithOffset(base, 0))
	assert.Equal(t, "20260314092655", NumberWithOffset(base, 2))
}

func TestFilenames(t *testing.T) {
	up, down := Filenames("20260314092653", "create_users")
	assert.Equal(t, "20260314092653_create_users.up.sql", up)
	assert.Equal(t, "20260314092653_create_users.down.sql", down)
}

func TestPlan_OrdersByForeignKey(t *testing.T) {
	tables := []TableSpec{
		{
			Name: "posts",
			Columns: []ColumnSpec{
				{Name: "id", Type: "UUID", Primary: true},
				{Name: "user_id", Type: "UUID"},
			},
			ForeignKeys: []ForeignKeySpec{{Column: "user_id", References: "users.id"}},
		},
		{
			Name: "users",
			Columns: []ColumnSpec{
				{Name: "id", Type: "UUID", Primary: true},
			},
		},
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ops, err := Plan(tables, "migrations", base)
	require.NoError(t, err)
	require.Len(t, ops, 4) // up+down per table

	// users must be emitted (and numbered) before posts
	assert.Contains(t, ops[0].Description(), "create_users.up.sql")
	assert.Contains(t, ops[2].Description(), "create_posts.up.sql")
}

func TestPlan_CycleFails(t *testing.T) {
	tables := []TableSpec{
		{Name: "a", ForeignKeys: []ForeignKeySpec{{Column: "b_id", References: "b.id"}}},
		{Name: "b", ForeignKeys: []ForeignKeySpec{{Column: "a_id", References: "a.id"}}},
	}

	_, err := Plan(tables, "migrations", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestPlan_ExternalReferenceIgnored(t *testing.T) {
	tables := []TableSpec{
		{Name: "sessions", ForeignKeys: []ForeignKeySpec{{Column: "user_id", References: "users.id"}}},
	}

	ops, err := Plan(tables, "migrations", time.Now())
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestUpSQL(t *testing.T) {
	table := TableSpec{
		Name: "users",
		Columns: []ColumnSpec{
			{Name: "id", Type: "UUID", Primary: true},
			{Name: "email", Type: "TEXT"},
			{Name: "bio", Type: "TEXT", Nullable: true},
			{Name: "created_at", Type: "TIMESTAMP", Default: "now()"},
		},
		ForeignKeys: []ForeignKeySpec{{Column: "org_id", References: "orgs.id"}},
	}

	sql := upSQL(table)
	assert.Contains(t, sql, "CREATE TABLE users")
	assert.Contains(t, sql, "id UUID PRIMARY KEY")
	assert.Contains(t, sql, "email TEXT NOT NULL")
	assert.NotContains(t, sql, "bio TEXT NOT NULL")
	assert.Contains(t, sql, "DEFAULT now()")
	assert.Contains(t, sql, "FOREIGN KEY (org_id) REFERENCES orgs (id)")
}
