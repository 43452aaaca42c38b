package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_CreatesDatabaseAndSchema(t *testing.T) {
	dir := t.TempDir()

	database, err := Init(dir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(dir, "shiftpaste.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}

	for _, table := range []string{"clipboard_records", "master_records", "lexical_index"} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_WALModeEnabled(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestInit_Reopen(t *testing.T) {
	dir := t.TempDir()

	database, err := Init(dir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	if _, err := database.Exec(`
		INSERT INTO clipboard_records (content, fingerprint, captured_at)
		VALUES ('persisted', 'f1', 100)
	`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	database.Close()

	database, err = Init(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer database.Close()

	var count int
	if err := database.QueryRow(`SELECT count(*) FROM clipboard_records`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after reopen", count)
	}
}

func TestInit_CreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "base")

	database, err := Init(dir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	database.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("base dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("base path is not a directory")
	}
}
