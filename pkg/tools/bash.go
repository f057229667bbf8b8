package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/agentcore/agentcore/pkg/sandbox"
	"github.com/agentcore/agentcore/pkg/types"
)

const (
	shellDefaultTimeout = 30 * time.Second
	shellMaxTimeout     = 600 * time.Second
	shellMaxOutput      = 30000 // characters
)

// BashTool executes a shell command. Children run under the kernel sandbox
// (fs-restriction + syscall-filter traits) when one is configured. Grounded
// on pkg/tools/bash.go's exec.CommandContext foreground pattern; background
// execution is dropped (spec.md's Subagent Manager, §4.9, is the mechanism
// for concurrent work, not a Bash run_in_background flag).
type BashTool struct {
	CWD     string
	Sandbox *sandbox.Sandbox // nil means unsandboxed
}

func (b *BashTool) Name() string { return "run_shell_command" }

func (b *BashTool) Description() string {
	return "Runs a shell command in the workspace working directory and returns its " +
		"combined stdout/stderr, truncated if very large. Commands are subject to the " +
		"command-policy gate and a timeout."
}

func (b *BashTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "The command to execute"},
			"timeout_ms": map[string]any{
				"type":        "integer",
				"description": "Optional timeout in milliseconds (max 600000, default 30000)",
			},
		},
		"required": []string{"command"},
	}
}

func (b *BashTool) SideEffect() types.SideEffectType { return types.SideEffectShell }

func (b *BashTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	command, ok := input["command"].(string)
	if !ok || command == "" {
		return types.ToolOutput{Content: "Error: command is required", IsError: true}, nil
	}

	timeout := shellDefaultTimeout
	if t, ok := input["timeout_ms"].(float64); ok && t > 0 {
		timeout = time.Duration(t) * time.Millisecond
		if timeout > shellMaxTimeout {
			timeout = shellMaxTimeout
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	if b.CWD != "" {
		cmd.Dir = b.CWD
	}
	if b.Sandbox != nil {
		if err := b.Sandbox.Apply(cmd); err != nil {
			return types.ToolOutput{}, fmt.Errorf("%w: %v", types.ErrInternal, err)
		}
	}

	output, err := cmd.CombinedOutput()
	result := strings.TrimRight(string(output), "\n")

	if len(result) > shellMaxOutput {
		result = result[:shellMaxOutput] + fmt.Sprintf(
			"\n... (truncated, %d total characters; pipe to head/tail to limit output)", len(result))
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return types.ToolOutput{}, fmt.Errorf("%w: after %s", types.ErrShellTimeout, timeout)
		}
		return types.ToolOutput{Content: result, IsError: true}, nil
	}

	return types.ToolOutput{Content: result}, nil
}
