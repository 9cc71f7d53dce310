package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jacoelho/rex/internal/config"
	"github.com/jacoelho/rex/internal/table"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestProduceEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	columnsFile := writeFile(t, dir, "columns.yaml", `Title:
  pattern: "^title$"
Tags:
  pattern_path: ["^tags$"]
Extras:
  pattern_path: ["^extras$", ".*"]
  return_multiple_columns: true
`)
	recordsFile := writeFile(t, dir, "records.json", `[
  {"title": "first", "tags": ["a", "b"], "extras": {"license": "mit"}},
  {"title": "second", "tags": ["c"], "extras": {"license": "gpl", "size": "10"}}
]`)

	cfg := &config.Config{
		ColumnsFile: columnsFile,
		Format:      table.FormatCSV,
		RecordFiles: []string{recordsFile},
	}

	got, err := produce(cfg)
	if err != nil {
		t.Fatalf("produce() error = %v", err)
	}

	want := "Title,Tags,extras_license,extras_size\n" +
		"first,\"a, b\",mit,\n" +
		"second,c,gpl,10\n"
	if got != want {
		t.Fatalf("produce() = %q, want %q", got, want)
	}
}

func TestProduceRejectsBadColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	columnsFile := writeFile(t, dir, "columns.yaml", `Title:
  pattern: "a"
  pattern_path: "b"
`)
	recordsFile := writeFile(t, dir, "records.json", `[{"title": "x"}]`)

	cfg := &config.Config{
		ColumnsFile: columnsFile,
		Format:      table.FormatCSV,
		RecordFiles: []string{recordsFile},
	}

	if _, err := produce(cfg); err == nil {
		t.Fatal("produce() expected error for conflicting pattern keys")
	}
}
