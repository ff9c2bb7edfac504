package sqlite

import (
	"path/filepath"
	"testing"
)

func TestNewDB_InMemory(t *testing.T) {
	t.Parallel()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB(:memory:): %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&mode); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if mode != "1" {
		t.Errorf("expected foreign_keys=1, got %q", mode)
	}
}

func TestNewDB_FileCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.db")
	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB(%q): %v", path, err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestNewDB_MissingParentDir_ReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does", "not", "exist", "audit.db")
	if _, err := NewDB(path); err == nil {
		t.Fatal("expected error for missing parent directory, got nil")
	}
}
