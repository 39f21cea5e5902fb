package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClearCacheDir(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"ab/abcdef.json",
		"ab/cd/abcd12.json",
		"ff.json",
	}
	for _, f := range files {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearCacheDir(dir)
	if err != nil {
		t.Fatalf("clearCacheDir() error: %v", err)
	}
	if count != len(files) {
		t.Errorf("clearCacheDir() = %d, want %d", count, len(files))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir should survive: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after clear, want 0", len(entries))
	}
}

func TestClearCacheDirMissing(t *testing.T) {
	count, err := clearCacheDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("clearCacheDir() on a missing dir error: %v", err)
	}
	if count != 0 {
		t.Errorf("clearCacheDir() = %d, want 0", count)
	}
}
