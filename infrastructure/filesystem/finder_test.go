package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindNewestFile(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "session-001.avi")
	newer := filepath.Join(dir, "session-002.avi")
	ignored := filepath.Join(dir, "notes.txt")

	for _, p := range []string{older, newer, ignored} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := FindNewestFile(dir, ".avi", ".mp4")
	if err != nil {
		t.Fatalf("FindNewestFile: %v", err)
	}
	if got != newer {
		t.Errorf("FindNewestFile() = %q, want %q", got, newer)
	}
}

func TestFindNewestFileEmpty(t *testing.T) {
	if _, err := FindNewestFile(t.TempDir(), ".avi"); err == nil {
		t.Fatal("expected error for directory with no matches")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.avi"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, ".csv")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ListFiles() = %v, want 2 files", files)
	}
}

func TestChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exists")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewChecker()
	if !c.Exists(path) {
		t.Error("Exists() should be true for an existing file")
	}
	if c.Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists() should be false for a missing file")
	}
}
