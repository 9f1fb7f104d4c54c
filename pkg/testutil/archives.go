package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ulikunitz/xz"
)

// WriteTarGz builds a .tar.gz archive at path from the given entries.
// Keys are slash-separated relative paths, values are file contents.
func WriteTarGz(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	file := createArchiveFile(t, path)
	defer closeOrFatal(t, path, file)

	gzw := gzip.NewWriter(file)
	writeTarEntries(t, path, gzw, entries)
	if err := gzw.Close(); err != nil {
		t.Fatalf("closing gzip writer for %s: %v", path, err)
	}
}

// WriteTarXz builds a .tar.xz archive at path from the given entries.
func WriteTarXz(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	file := createArchiveFile(t, path)
	defer closeOrFatal(t, path, file)

	xzw, err := xz.NewWriter(file)
	if err != nil {
		t.Fatalf("creating xz writer for %s: %v", path, err)
	}
	writeTarEntries(t, path, xzw, entries)
	if err := xzw.Close(); err != nil {
		t.Fatalf("closing xz writer for %s: %v", path, err)
	}
}

// WriteZip builds a .zip archive at path from the given entries.
func WriteZip(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	file := createArchiveFile(t, path)
	defer closeOrFatal(t, path, file)

	zw := zip.NewWriter(file)
	for _, name := range sortedKeys(entries) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer for %s: %v", path, err)
	}
}

func writeTarEntries(t testing.TB, path string, out io.Writer, entries map[string]string) {
	t.Helper()

	tw := tar.NewWriter(out)
	for _, name := range sortedKeys(entries) {
		content := []byte(entries[name])
		header := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("writing tar header %s: %v", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("writing tar entry %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer for %s: %v", path, err)
	}
}

func createArchiveFile(t testing.TB, path string) *os.File {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent of %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	return file
}

func closeOrFatal(t testing.TB, path string, file *os.File) {
	t.Helper()

	if err := file.Close(); err != nil {
		t.Fatalf("closing %s: %v", path, err)
	}
}

func sortedKeys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
