package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentcore/agentcore/pkg/types"
)

// ListDirectoryTool implements spec.md §4.4's list_directory: names only,
// sorted lexicographically. Grounded on pkg/tools/glob.go's directory
// traversal pattern, narrowed to a single non-recursive os.ReadDir.
type ListDirectoryTool struct {
	Validator *PathValidator
}

func (l *ListDirectoryTool) Name() string { return "list_directory" }

func (l *ListDirectoryTool) Description() string {
	return "Lists the entry names of a directory, sorted lexicographically."
}

func (l *ListDirectoryTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory to list"},
		},
		"required": []string{"path"},
	}
}

func (l *ListDirectoryTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (l *ListDirectoryTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := l.Validator.CheckRead(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	entries, err := os.ReadDir(canon)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return types.ToolOutput{Content: "(empty directory)"}, nil
	}
	return types.ToolOutput{Content: strings.Join(names, "\n")}, nil
}

// ListDirectorySizesTool implements spec.md §4.4's list_directory_sizes:
// names with byte sizes, optionally sorted by size or name.
type ListDirectorySizesTool struct {
	Validator *PathValidator
}

func (l *ListDirectorySizesTool) Name() string { return "list_directory_sizes" }

func (l *ListDirectorySizesTool) Description() string {
	return "Lists directory entries with their byte sizes, optionally sorted by size or name."
}

func (l *ListDirectorySizesTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory to list"},
			"sort": map[string]any{"type": "string", "description": "\"size\" or \"name\" (default \"name\")"},
		},
		"required": []string{"path"},
	}
}

func (l *ListDirectorySizesTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

type dirSizeEntry struct {
	name string
	size int64
}

func (l *ListDirectorySizesTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := l.Validator.CheckRead(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	entries, err := os.ReadDir(canon)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	sized := make([]dirSizeEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		sized = append(sized, dirSizeEntry{name: e.Name(), size: info.Size()})
	}

	sortBy, _ := input["sort"].(string)
	if sortBy == "size" {
		sort.Slice(sized, func(i, j int) bool { return sized[i].size > sized[j].size })
	} else {
		sort.Slice(sized, func(i, j int) bool { return sized[i].name < sized[j].name })
	}

	if len(sized) == 0 {
		return types.ToolOutput{Content: "(empty directory)"}, nil
	}

	var b strings.Builder
	for _, e := range sized {
		fmt.Fprintf(&b, "%10d  %s\n", e.size, e.name)
	}
	return types.ToolOutput{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// DirectoryTreeTool implements spec.md §4.4's directory_tree: a
// breadth-bounded recursive listing that respects exclude_globs.
type DirectoryTreeTool struct {
	Validator *PathValidator
}

func (d *DirectoryTreeTool) Name() string { return "directory_tree" }

func (d *DirectoryTreeTool) Description() string {
	return "Renders a recursive directory tree bounded by max_depth, skipping entries that match exclude_globs."
}

func (d *DirectoryTreeTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":          map[string]any{"type": "string", "description": "Root of the tree"},
			"max_depth":     map[string]any{"type": "number", "description": "Maximum recursion depth (default 10)"},
			"exclude_globs": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"path"},
	}
}

func (d *DirectoryTreeTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (d *DirectoryTreeTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := d.Validator.CheckRead(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	maxDepth := maxSearchDepth
	if v, ok := input["max_depth"].(float64); ok && v > 0 && int(v) < maxDepth {
		maxDepth = int(v)
	}
	var excludes []string
	if raw, ok := input["exclude_globs"].([]any); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				excludes = append(excludes, s)
			}
		}
	}

	var b strings.Builder
	b.WriteString(filepath.Base(canon) + "/\n")
	if err := writeTree(&b, canon, "", 1, maxDepth, excludes); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return types.ToolOutput{Content: strings.TrimRight(b.String(), "\n")}, nil
}

func writeTree(b *strings.Builder, dir, prefix string, depth, maxDepth int, excludes []string) error {
	if depth > maxDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		excluded := false
		for _, g := range excludes {
			if ok, _ := doublestar.Match(g, e.Name()); ok {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		fmt.Fprintf(b, "%s%s\n", prefix, name)
		if e.IsDir() {
			writeTree(b, filepath.Join(dir, e.Name()), prefix+"  ", depth+1, maxDepth, excludes)
		}
	}
	return nil
}

// GetFileInfoTool implements spec.md §4.4's get_file_info: size, mtime,
// kind, and permissions for a path.
type GetFileInfoTool struct {
	Validator *PathValidator
}

func (g *GetFileInfoTool) Name() string { return "get_file_info" }

func (g *GetFileInfoTool) Description() string {
	return "Reports size, modification time, kind, and permissions for a path."
}

func (g *GetFileInfoTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to inspect"},
		},
		"required": []string{"path"},
	}
}

func (g *GetFileInfoTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (g *GetFileInfoTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := g.Validator.CheckRead(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	info, err := os.Lstat(canon)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	kind := "file"
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		kind = "symlink"
	case info.IsDir():
		kind = "directory"
	}

	content := fmt.Sprintf(
		"path: %s\nkind: %s\nsize: %d\nmode: %s\nmodified: %s",
		canon, kind, info.Size(), info.Mode().String(), info.ModTime().Format("2006-01-02T15:04:05Z07:00"),
	)
	return types.ToolOutput{Content: content}, nil
}

// ListAllowedPathsTool implements spec.md §4.4's list_allowed_paths,
// emitting the current allowed/denied sets for operator visibility.
type ListAllowedPathsTool struct {
	Validator *PathValidator
}

func (l *ListAllowedPathsTool) Name() string { return "list_allowed_paths" }

func (l *ListAllowedPathsTool) Description() string {
	return "Emits the current readable roots, writable roots, and denied glob patterns."
}

func (l *ListAllowedPathsTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (l *ListAllowedPathsTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (l *ListAllowedPathsTool) Execute(_ context.Context, _ map[string]any) (types.ToolOutput, error) {
	var b strings.Builder
	b.WriteString("read roots:\n")
	for _, r := range l.Validator.ReadRoots {
		fmt.Fprintf(&b, "  %s\n", r)
	}
	b.WriteString("write roots:\n")
	for _, r := range l.Validator.WriteRoots {
		fmt.Fprintf(&b, "  %s\n", r)
	}
	if len(l.Validator.DeniedGlobs) > 0 {
		b.WriteString("denied globs:\n")
		for _, g := range l.Validator.DeniedGlobs {
			fmt.Fprintf(&b, "  %s\n", g)
		}
	}
	return types.ToolOutput{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// CreateDirectoryTool implements spec.md §4.4's create_directory: mkdir -p
// bounded by allowed roots.
type CreateDirectoryTool struct {
	Validator *PathValidator
}

func (c *CreateDirectoryTool) Name() string { return "create_directory" }

func (c *CreateDirectoryTool) Description() string {
	return "Creates a directory and any missing parents, bounded by the allowed write roots."
}

func (c *CreateDirectoryTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory to create"},
		},
		"required": []string{"path"},
	}
}

func (c *CreateDirectoryTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (c *CreateDirectoryTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := c.Validator.CheckWrite(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	if err := os.MkdirAll(canon, 0o755); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return types.ToolOutput{Content: fmt.Sprintf("Created directory %s", canon)}, nil
}

// MoveFileTool implements spec.md §4.4's move_file: a same-volume rename
// when possible, falling back to copy+unlink across volumes.
type MoveFileTool struct {
	Validator *PathValidator
}

func (m *MoveFileTool) Name() string { return "move_file" }

func (m *MoveFileTool) Description() string {
	return "Moves or renames a file, copying across volumes when a direct rename is not possible."
}

func (m *MoveFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"src": map[string]any{"type": "string", "description": "Source path"},
			"dst": map[string]any{"type": "string", "description": "Destination path"},
		},
		"required": []string{"src", "dst"},
	}
}

func (m *MoveFileTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (m *MoveFileTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	src, ok := input["src"].(string)
	if !ok || src == "" {
		return types.ToolOutput{Content: "Error: src is required", IsError: true}, nil
	}
	dst, ok := input["dst"].(string)
	if !ok || dst == "" {
		return types.ToolOutput{Content: "Error: dst is required", IsError: true}, nil
	}

	canonSrc, err := m.Validator.CheckWrite(src)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	canonDst, err := m.Validator.CheckWrite(dst)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	if err := os.MkdirAll(filepath.Dir(canonDst), 0o755); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	if err := os.Rename(canonSrc, canonDst); err != nil {
		if copyErr := copyThenRemove(canonSrc, canonDst); copyErr != nil {
			return types.ToolOutput{Content: fmt.Sprintf("Error: %s", copyErr), IsError: true}, nil
		}
	}
	return types.ToolOutput{Content: fmt.Sprintf("Moved %s to %s", canonSrc, canonDst)}, nil
}

func copyThenRemove(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode()); err != nil {
		return err
	}
	return os.Remove(src)
}

// DeleteFileTool implements spec.md §4.4's delete_file: single-file removal,
// never recursive (directories are rejected).
type DeleteFileTool struct {
	Validator *PathValidator
}

func (d *DeleteFileTool) Name() string { return "delete_file" }

func (d *DeleteFileTool) Description() string {
	return "Deletes a single file. Refuses to operate on directories."
}

func (d *DeleteFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File to delete"},
		},
		"required": []string{"path"},
	}
}

func (d *DeleteFileTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (d *DeleteFileTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return types.ToolOutput{Content: "Error: path is required", IsError: true}, nil
	}
	canon, err := d.Validator.CheckWrite(path)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	info, err := os.Lstat(canon)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	if info.IsDir() {
		return types.ToolOutput{Content: "Error: delete_file refuses to remove a directory", IsError: true}, nil
	}
	if err := os.Remove(canon); err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return types.ToolOutput{Content: fmt.Sprintf("Deleted %s", canon)}, nil
}
