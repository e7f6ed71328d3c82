package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitDBSingleton(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	ResetDB()
	defer ResetDB()

	dbPath := filepath.Join(tempDir, "documents.db")
	database, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	if GetDB() != database {
		t.Error("GetDB should return the handle InitDB produced")
	}

	// A second call must not reopen; the singleton handle is shared.
	again, err := InitDB(filepath.Join(tempDir, "other.db"))
	if err != nil {
		t.Fatalf("Repeat InitDB failed: %v", err)
	}
	if again != database {
		t.Error("Repeat InitDB should return the existing handle")
	}

	// Migrations ran, so the documents table accepts writes.
	if _, err := database.Exec(
		"INSERT INTO documents (id, content) VALUES (?, ?)", "doc-1", "hello",
	); err != nil {
		t.Fatalf("Insert into migrated schema failed: %v", err)
	}

	ResetDB()
	if GetDB() != nil {
		t.Error("ResetDB should clear the handle")
	}

	// After a reset, InitDB opens fresh.
	reopened, err := InitDB(filepath.Join(tempDir, "fresh.db"))
	if err != nil {
		t.Fatalf("InitDB after reset failed: %v", err)
	}
	if reopened == nil || reopened == database {
		t.Error("InitDB after reset should produce a new handle")
	}
}
