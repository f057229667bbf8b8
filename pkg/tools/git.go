package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/agentcore/agentcore/pkg/sandbox"
	"github.com/agentcore/agentcore/pkg/types"
)

// gitAllowedSubcommands bounds GitTool to the repository-inspection and
// simple-commit subcommands; anything else (push, remote, config) is
// refused before a child process is ever spawned.
var gitAllowedSubcommands = map[string]bool{
	"status": true, "diff": true, "log": true, "show": true,
	"branch": true, "add": true, "commit": true, "restore": true,
}

// GitTool wraps the git binary for the capability matrix's separate Git
// column (spec.md §3). Grounded on pkg/tools/bash.go's exec.CommandContext
// pattern, narrowed to a fixed subcommand allowlist and routed through the
// same kernel sandbox as shell children since git invokes hooks that run
// arbitrary scripts.
type GitTool struct {
	CWD     string
	Sandbox *sandbox.Sandbox
}

func (g *GitTool) Name() string { return "git" }

func (g *GitTool) Description() string {
	return "Runs a bounded set of git subcommands (status, diff, log, show, branch, add, commit, restore) in the workspace."
}

func (g *GitTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subcommand": map[string]any{"type": "string", "description": "git subcommand, e.g. \"status\""},
			"args":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"subcommand"},
	}
}

func (g *GitTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (g *GitTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	sub, ok := input["subcommand"].(string)
	if !ok || sub == "" {
		return types.ToolOutput{Content: "Error: subcommand is required", IsError: true}, nil
	}
	if !gitAllowedSubcommands[sub] {
		return types.ToolOutput{Content: fmt.Sprintf("Error: git subcommand %q is not permitted", sub), IsError: true}, nil
	}

	args := []string{sub}
	if raw, ok := input["args"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if g.CWD != "" {
		cmd.Dir = g.CWD
	}
	if g.Sandbox != nil {
		if err := g.Sandbox.Apply(cmd); err != nil {
			return types.ToolOutput{}, fmt.Errorf("%w: %v", types.ErrInternal, err)
		}
	}

	output, err := cmd.CombinedOutput()
	result := strings.TrimRight(string(output), "\n")
	if err != nil {
		return types.ToolOutput{Content: result, IsError: true}, nil
	}
	return types.ToolOutput{Content: result}, nil
}
