package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteTree materializes a file tree under root. Keys are slash-separated
// relative paths; a key ending in "/" creates an empty directory, any other
// key creates a file with the value as content.
func WriteTree(t testing.TB, root string, entries map[string]string) {
	t.Helper()

	for rel, content := range entries {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(abs, 0755); err != nil {
				t.Fatalf("creating directory %s: %v", abs, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatalf("creating parent of %s: %v", abs, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", abs, err)
		}
	}
}

// WriteFile writes a single file, creating parent directories as needed.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
