package tools

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestSearchFiles_SimplePattern(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.go"), []byte(""), 0o644)
	os.WriteFile(filepath.Join(dir, "b.go"), []byte(""), 0o644)
	os.WriteFile(filepath.Join(dir, "c.txt"), []byte(""), 0o644)

	tool := &SearchFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"root": dir, "glob": "*.go"})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	if !strings.Contains(out.Content, "a.go") || !strings.Contains(out.Content, "b.go") {
		t.Errorf("expected a.go and b.go, got %q", out.Content)
	}
	if strings.Contains(out.Content, "c.txt") {
		t.Error("c.txt should not match *.go")
	}
}

func TestSearchFiles_RecursesIntoSubdirs(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755)
	os.WriteFile(filepath.Join(dir, "root.go"), []byte(""), 0o644)
	os.WriteFile(filepath.Join(dir, "sub", "mid.go"), []byte(""), 0o644)
	os.WriteFile(filepath.Join(dir, "sub", "deep", "leaf.go"), []byte(""), 0o644)

	tool := &SearchFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"root": dir, "glob": "*.go"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "mid.go") || !strings.Contains(out.Content, "leaf.go") {
		t.Errorf("expected mid.go and leaf.go, got %q", out.Content)
	}
}

func TestSearchFiles_MaxDepthBounds(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755)
	os.WriteFile(filepath.Join(dir, "sub", "mid.go"), []byte(""), 0o644)
	os.WriteFile(filepath.Join(dir, "sub", "deep", "leaf.go"), []byte(""), 0o644)

	tool := &SearchFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"root": dir, "glob": "*.go", "max_depth": float64(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.Content, "leaf.go") {
		t.Error("leaf.go is at depth 2, should be excluded by max_depth 1")
	}
}

func TestSearchFiles_MaxResultsTruncates(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		os.WriteFile(filepath.Join(dir, strconv.Itoa(i)+".txt"), []byte(""), 0o644)
	}

	tool := &SearchFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"root": dir, "glob": "*.txt", "max_results": float64(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "truncated") {
		t.Error("expected truncation message")
	}
}

func TestSearchFiles_NoMatches(t *testing.T) {
	dir := t.TempDir()
	tool := &SearchFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"root": dir, "glob": "*.xyz"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "No files") {
		t.Errorf("expected 'No files' message, got %q", out.Content)
	}
}
