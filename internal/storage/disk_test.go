package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "docqa.db")
	writeFile(t, db, "hello")
	writeFile(t, db+"-wal", "wal")

	index := filepath.Join(dir, "history.bleve")
	if err := os.Mkdir(index, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(index, "a"), "ab")
	writeFile(t, filepath.Join(index, "b"), "c")

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"database with wal", []string{db}, 8},
		{"index directory", []string{index}, 3},
		{"database and index", []string{db, index}, 11},
		{"missing path skipped", []string{filepath.Join(dir, "nope"), index}, 3},
		{"empty path skipped", []string{"", index}, 3},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
