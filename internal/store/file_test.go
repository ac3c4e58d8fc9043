package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	exerciseStore(t, s)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := first.SetItem(ctx, "page/with slashes?", "value"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	v, ok, err := second.GetItem(ctx, "page/with slashes?")
	if err != nil || !ok || v != "value" {
		t.Errorf("Expected value after reopen, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestFileStore_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, _ := NewFileStore(dir)

	if err := s.SetItem(ctx, "good", "1"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "good" {
		t.Errorf("Expected only 'good', got %v", keys)
	}
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("Expected error for empty directory")
	}
}
