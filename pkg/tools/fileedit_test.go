package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEditFile_SingleOccurrence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("hello world"), 0o644)

	tool := &EditFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"path": path, "old_text": "world", "new_text": "there",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello there" {
		t.Errorf("got %q", string(data))
	}
}

func TestEditFile_NonUniqueFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("a a a"), 0o644)

	tool := &EditFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"path": path, "old_text": "a", "new_text": "b",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for non-unique old_text")
	}
}

func TestEditFile_MissingTextFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("hello"), 0o644)

	tool := &EditFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"path": path, "old_text": "missing", "new_text": "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for missing old_text")
	}
}

func TestEditFile_DryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("hello world"), 0o644)

	tool := &EditFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"path": path, "old_text": "world", "new_text": "there", "dry_run": true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello world" {
		t.Errorf("dry_run should not modify file, got %q", string(data))
	}
}
