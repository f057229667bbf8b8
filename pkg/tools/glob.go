package tools

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentcore/agentcore/pkg/types"
)

// SearchFilesTool implements spec.md §4.4's search_files: a name-glob search
// under root bounded by max_search_depth and max_search_results. Grounded
// on pkg/tools/glob.go's GlobTool, replacing its single doublestar.FilepathGlob
// call (which has no depth or result cap) with a bounded filepath.WalkDir
// that applies both caps explicitly.
type SearchFilesTool struct {
	Validator *PathValidator
}

func (g *SearchFilesTool) Name() string { return "search_files" }

func (g *SearchFilesTool) Description() string {
	return "Searches for files by name glob under root, bounded by max depth (default 10) and max results (default 500)."
}

func (g *SearchFilesTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"root":        map[string]any{"type": "string", "description": "Directory to search under"},
			"glob":        map[string]any{"type": "string", "description": "Name glob, e.g. \"*.go\" or \"**/*.md\""},
			"max_depth":   map[string]any{"type": "number", "description": "Maximum recursion depth (default 10)"},
			"max_results": map[string]any{"type": "number", "description": "Maximum results returned (default 500)"},
		},
		"required": []string{"root", "glob"},
	}
}

func (g *SearchFilesTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (g *SearchFilesTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	root, ok := input["root"].(string)
	if !ok || root == "" {
		return types.ToolOutput{Content: "Error: root is required", IsError: true}, nil
	}
	pattern, ok := input["glob"].(string)
	if !ok || pattern == "" {
		return types.ToolOutput{Content: "Error: glob is required", IsError: true}, nil
	}

	canonRoot, err := g.Validator.CheckRead(root)
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	maxDepth := maxSearchDepth
	if d, ok := input["max_depth"].(float64); ok && d > 0 && int(d) < maxDepth {
		maxDepth = int(d)
	}
	maxResults := maxSearchResults
	if r, ok := input["max_results"].(float64); ok && r > 0 && int(r) < maxResults {
		maxResults = int(r)
	}

	var matches []string
	truncated := false
	err = filepath.WalkDir(canonRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != canonRoot {
			rel, relErr := filepath.Rel(canonRoot, path)
			if relErr == nil {
				depth := strings.Count(rel, string(filepath.Separator)) + 1
				if d.IsDir() && depth > maxDepth {
					return filepath.SkipDir
				}
			}
		}
		if d.IsDir() {
			return nil
		}
		if len(matches) >= maxResults {
			truncated = true
			return filepath.SkipAll
		}
		ok, matchErr := doublestar.Match(pattern, d.Name())
		if matchErr != nil {
			return matchErr
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return types.ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}

	sort.Strings(matches)
	if len(matches) == 0 {
		return types.ToolOutput{Content: "No files matched."}, nil
	}

	result := strings.Join(matches, "\n")
	if truncated {
		result += fmt.Sprintf("\n... (truncated at %d results)", maxResults)
	}
	return types.ToolOutput{Content: result}, nil
}
