package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcore/agentcore/pkg/types"
)

// WriteFileTool implements spec.md §4.4's write_file: an atomic replace that
// creates parent directories up to the allowed write root. Grounded on
// pkg/tools/filewrite.go's FileWriteTool, adapted to go through a
// PathValidator and to write via a temp-file-plus-rename instead of a
// direct os.WriteFile so a crash mid-write never leaves a half-written
// file in place.
type WriteFileTool struct {
	Validator *PathValidator
}

func (f *WriteFileTool) Name() string { return "write_file" }

func (f *WriteFileTool) Description() string {
	return "Creates or overwrites a file with the given content, capped at 5 MiB. Creates parent directories as needed."
}

func (f *WriteFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "Path to the file to write"},
			"content": map[string]any{"type": "string", "description": "Content to write"},
		},
		"required": []string{"path", "content"},
	}
}

func (f *WriteFileTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (f *WriteFileTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	content, ok := input["content"].(string)
	if !ok {
		return types.ToolOutput{Content: "Error: content is required", IsError: true}, nil
	}
	if len(content) > maxWriteBytes {
		return types.ToolOutput{
			Content: fmt.Sprintf("Error: content is %d bytes, exceeds the %d byte write cap", len(content), maxWriteBytes),
			IsError: true,
		}, nil
	}

	canon, err := f.Validator.CheckWrite(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	dir := filepath.Dir(canon)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error creating directories: %s", err), IsError: true}, nil
	}

	tmp, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return types.ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}
	if err := os.Rename(tmpPath, canon); err != nil {
		os.Remove(tmpPath)
		return types.ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}

	lineCount := strings.Count(content, "\n")
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		lineCount++
	}
	return types.ToolOutput{Content: fmt.Sprintf("File written successfully at: %s (%d lines)", canon, lineCount)}, nil
}
