package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agentcore/agentcore/pkg/types"
)

// EditFileTool implements spec.md §4.4's edit_file: an exact-substring
// replace that fails if old_text is absent or non-unique, with an optional
// dry_run that reports the would-be change without writing it. Grounded on
// pkg/tools/fileedit.go's FileEditTool, adapted to go through a
// PathValidator and to add dry_run in place of the teacher's replace_all
// flag (spec.md's edit_file has no multi-occurrence mode).
type EditFileTool struct {
	Validator *PathValidator
}

func (f *EditFileTool) Name() string { return "edit_file" }

func (f *EditFileTool) Description() string {
	return "Replaces an exact substring in a file. Fails if old_text is missing or appears more than once."
}

func (f *EditFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":     map[string]any{"type": "string", "description": "Path to the file to edit"},
			"old_text": map[string]any{"type": "string", "description": "Exact text to replace"},
			"new_text": map[string]any{"type": "string", "description": "Replacement text"},
			"dry_run":  map[string]any{"type": "boolean", "description": "Report the change without writing it"},
		},
		"required": []string{"path", "old_text", "new_text"},
	}
}

func (f *EditFileTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (f *EditFileTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	oldText, ok := input["old_text"].(string)
	if !ok {
		return types.ToolOutput{Content: "Error: old_text is required", IsError: true}, nil
	}
	newText, ok := input["new_text"].(string)
	if !ok {
		return types.ToolOutput{Content: "Error: new_text is required", IsError: true}, nil
	}
	if oldText == newText {
		return types.ToolOutput{Content: "Error: old_text and new_text must be different", IsError: true}, nil
	}
	dryRun, _ := input["dry_run"].(bool)

	canon, err := f.Validator.CheckWrite(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	data, err := os.ReadFile(canon)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	content := string(data)

	count := strings.Count(content, oldText)
	if count == 0 {
		return types.ToolOutput{Content: "Error: old_text not found in file", IsError: true}, nil
	}
	if count > 1 {
		return types.ToolOutput{
			Content: fmt.Sprintf("Error: old_text found %d times in file; it must be unique", count),
			IsError: true,
		}, nil
	}

	newContent := strings.Replace(content, oldText, newText, 1)
	if len(newContent) > maxWriteBytes {
		return types.ToolOutput{
			Content: fmt.Sprintf("Error: edit result is %d bytes, exceeds the %d byte write cap", len(newContent), maxWriteBytes),
			IsError: true,
		}, nil
	}

	if dryRun {
		return types.ToolOutput{Content: fmt.Sprintf("Dry run: would replace 1 occurrence in %s", canon)}, nil
	}

	if err := os.WriteFile(canon, []byte(newContent), 0o644); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error writing file: %s", err), IsError: true}, nil
	}

	return types.ToolOutput{Content: fmt.Sprintf("Replaced 1 occurrence in %s", canon)}, nil
}
