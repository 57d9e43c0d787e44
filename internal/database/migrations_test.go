package database

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			"single statement",
			"CREATE TABLE a (id INTEGER);",
			[]string{"CREATE TABLE a (id INTEGER)"},
		},
		{
			"multiple statements",
			"CREATE TABLE a (id INTEGER);\n\nCREATE INDEX idx_a ON a (id);\n",
			[]string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX idx_a ON a (id)"},
		},
		{
			"no trailing semicolon",
			"CREATE TABLE a (id INTEGER)",
			[]string{"CREATE TABLE a (id INTEGER)"},
		},
		{
			"blank chunks dropped",
			";;\nCREATE TABLE a (id INTEGER);\n;",
			[]string{"CREATE TABLE a (id INTEGER)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitStatements(tt.sql); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitStatements() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunMigrationsCreatesSchema(t *testing.T) {
	db, err := Open(Options{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "luckabet_test.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	// Every statement of the multi-statement file must have run, not just
	// the first: the tail of the file creates indexes.
	for _, table := range []string{"players", "users", "sessions", "password_reset_tokens", "games", "bets"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migrations: %v", table, err)
		}
	}
	var idx string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_bets_game_id'").Scan(&idx); err != nil {
		t.Errorf("index idx_bets_game_id missing after migrations: %v", err)
	}

	// Re-running is a no-op.
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
}
