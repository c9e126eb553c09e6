package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_KeepsClockAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if _, err := s1.db.Exec("UPDATE clock SET seq = 41 WHERE id = 1"); err != nil {
		t.Fatalf("update clock: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var seq int64
	if err := s2.db.QueryRow("SELECT seq FROM clock WHERE id = 1").Scan(&seq); err != nil {
		t.Fatalf("query clock: %v", err)
	}
	if seq != 41 {
		t.Errorf("clock seq = %d after reopen, want 41", seq)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_CheckpointsTable(t *testing.T) {
	s := openTestStore(t)

	columns := getTableColumns(t, s.db, "checkpoints")
	expected := []string{"model", "iteration", "path", "fingerprint", "seq"}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("checkpoints table missing column %q", col)
		}
	}
}

func TestSchema_RunsTable(t *testing.T) {
	s := openTestStore(t)

	columns := getTableColumns(t, s.db, "runs")
	expected := []string{
		"id", "model", "iterations", "complete", "stop_reason",
		"outcome", "violation", "fingerprint", "elapsed_ms", "seq",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("runs table missing column %q", col)
		}
	}
}

func TestSchema_RunsIndexes(t *testing.T) {
	s := openTestStore(t)

	indexes := getTableIndexes(t, s.db, "runs")
	if !contains(indexes, "idx_runs_model_seq") {
		t.Errorf("runs table missing index idx_runs_model_seq, have %v", indexes)
	}
}

func TestSchema_UserVersion(t *testing.T) {
	s := openTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigrate_UpgradesOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	for _, stmt := range []string{"DROP INDEX idx_runs_model_seq", "PRAGMA user_version = 0"} {
		if _, err := s1.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	if !contains(getTableIndexes(t, s2.db, "runs"), "idx_runs_model_seq") {
		t.Error("migration did not recreate idx_runs_model_seq")
	}
	var version int
	if err := s2.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestConstraint_RunsOutcome(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO runs (id, model, iterations, complete, outcome, elapsed_ms, seq)
		VALUES ('r1', 'm', 1, 1, 'maybe', 0, 1)
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation on outcome, got nil")
	}
}

func TestConstraint_RunsUniqueSeq(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO runs (id, model, iterations, complete, outcome, elapsed_ms, seq)
		VALUES ('r1', 'm', 1, 1, 'pass', 0, 7)
	`)
	if err != nil {
		t.Fatalf("failed to insert first run: %v", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, model, iterations, complete, outcome, elapsed_ms, seq)
		VALUES ('r2', 'm', 1, 1, 'pass', 0, 7)
	`)
	if err == nil {
		t.Error("expected UNIQUE constraint violation on seq, got nil")
	}
}

func TestConstraint_SingleClockRow(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec("INSERT INTO clock (id, seq) VALUES (2, 0)")
	if err == nil {
		t.Error("expected CHECK constraint violation on clock id, got nil")
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info: %v", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    interface{}
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("failed to scan column: %v", err)
		}
		columns = append(columns, name)
	}

	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ?
	`, table)
	if err != nil {
		t.Fatalf("failed to get indexes: %v", err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index: %v", err)
		}
		indexes = append(indexes, name)
	}

	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
