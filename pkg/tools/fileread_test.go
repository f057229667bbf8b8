package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testValidator(t *testing.T, dir string) *PathValidator {
	t.Helper()
	return NewPathValidator(dir, []string{dir}, []string{dir})
}

func TestReadTextFile_FullFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("line1\nline2\nline3\n"), 0o644)

	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	if out.Content != "line1\nline2\nline3" {
		t.Errorf("got %q", out.Content)
	}
}

func TestReadTextFile_HeadAndTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("a\nb\nc\nd\ne\n"), 0o644)

	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path, "head": float64(2)})
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "a\nb" {
		t.Errorf("head: got %q", out.Content)
	}

	out, err = tool.Execute(context.Background(), map[string]any{"path": path, "tail": float64(2)})
	if err != nil {
		t.Fatal(err)
	}
	if out.Content != "d\ne" {
		t.Errorf("tail: got %q", out.Content)
	}
}

func TestReadTextFile_NonexistentFile(t *testing.T) {
	dir := t.TempDir()
	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": filepath.Join(dir, "nope.txt")})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for nonexistent file")
	}
}

func TestReadTextFile_OutsideReadRootRejected(t *testing.T) {
	dir := t.TempDir()
	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": "/etc/hostname"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for path outside allowed read roots")
	}
}

func TestReadTextFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	os.WriteFile(path, []byte{}, 0o644)

	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "empty") {
		t.Errorf("expected empty file message, got %q", out.Content)
	}
}

func TestReadTextFile_OverCapRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	big := strings.Repeat("x", maxReadBytes+1)
	os.WriteFile(path, []byte(big), 0o644)

	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for over-cap file")
	}
}

// --- PDF tests ---

func TestReadTextFile_PDF_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pdf")
	os.WriteFile(path, []byte("not a real pdf"), 0o644)

	tool := &ReadTextFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for invalid PDF")
	}
}

func TestParsePDFPageRange(t *testing.T) {
	tests := []struct {
		input      string
		totalPages int
		wantStart  int
		wantEnd    int
		wantErr    bool
	}{
		{"1-5", 10, 1, 5, false},
		{"3", 10, 3, 3, false},
		{"10-20", 30, 10, 20, false},
		{"1-100", 10, 1, 10, false},
		{"5-3", 10, 0, 0, true},
		{"abc", 10, 0, 0, true},
		{"1-abc", 10, 0, 0, true},
		{" 2 - 4 ", 10, 2, 4, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.input, tt.totalPages), func(t *testing.T) {
			start, end, err := parsePDFPageRange(tt.input, tt.totalPages)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("got %d-%d, want %d-%d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// --- read_binary_file ---

func TestReadBinaryFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.dat")
	os.WriteFile(path, []byte{0x00, 0x01, 0xff, 0xfe}, 0o644)

	tool := &ReadBinaryFileTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	if out.Content != "AAH//g==" {
		t.Errorf("got %q", out.Content)
	}
}

// --- read_multiple_files ---

func TestReadMultipleFiles_PerPathResults(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("A"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("B"), 0o644)

	tool := &ReadMultipleFilesTool{Validator: testValidator(t, dir)}
	out, err := tool.Execute(context.Background(), map[string]any{
		"paths": []any{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "A") || !strings.Contains(out.Content, "B") {
		t.Errorf("expected both file contents, got %q", out.Content)
	}
}
