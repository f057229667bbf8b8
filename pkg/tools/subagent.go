package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/agentcore/pkg/subagent"
	"github.com/agentcore/agentcore/pkg/types"
)

// formatStatus renders a subagent.Status line the way the teacher's
// taskmanager.go renders BackgroundTask summaries: one line per record,
// id/name/state, with an error suffix only when present.
func formatStatus(s subagent.Status) string {
	line := fmt.Sprintf("%s\t%s\t%s", s.ID, s.Name, s.State)
	if s.Err != "" {
		line += "\t" + s.Err
	}
	return line
}

func formatStatuses(statuses []subagent.Status) string {
	if len(statuses) == 0 {
		return "No subagents."
	}
	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		lines = append(lines, formatStatus(s))
	}
	return strings.Join(lines, "\n")
}

func stringList(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SpawnSubagentTool launches a bounded background child process. Grounded
// on pkg/tools/taskmanager.go's Launch, reworked from an in-process
// llm.Client call to a real os/exec fork+exec per spec.md §4.9.
type SpawnSubagentTool struct {
	Manager *subagent.Manager
}

func (t *SpawnSubagentTool) Name() string { return "spawn_subagent" }

func (t *SpawnSubagentTool) Description() string {
	return "Spawns a named background subagent process running the given command. Returns the subagent's id."
}

func (t *SpawnSubagentTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":    map[string]any{"type": "string", "description": "a short label for the subagent"},
			"command": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "argv, e.g. [\"sh\", \"-c\", \"...\"]"},
		},
		"required": []string{"name", "command"},
	}
}

func (t *SpawnSubagentTool) SideEffect() types.SideEffectType { return types.SideEffectSpawns }

func (t *SpawnSubagentTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	name, _ := input["name"].(string)
	if name == "" {
		return types.ToolOutput{Content: "Error: name is required", IsError: true}, nil
	}
	command := stringList(input["command"])
	if len(command) == 0 {
		return types.ToolOutput{Content: "Error: command must be a non-empty list of strings", IsError: true}, nil
	}

	id, err := t.Manager.Spawn(ctx, name, command)
	if err != nil {
		return types.ToolOutput{Content: err.Error(), IsError: true}, nil
	}
	return types.ToolOutput{Content: id}, nil
}

// ListSubagentsTool reports every known subagent without reconciling
// process state.
type ListSubagentsTool struct {
	Manager *subagent.Manager
}

func (t *ListSubagentsTool) Name() string        { return "list_subagents" }
func (t *ListSubagentsTool) Description() string { return "Lists all known subagents and their last-known state." }
func (t *ListSubagentsTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (t *ListSubagentsTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (t *ListSubagentsTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	return types.ToolOutput{Content: formatStatuses(t.Manager.List())}, nil
}

// PollSubagentsTool reconciles finished subagents' terminal state and
// reports the updated list. This is the tool surface for spec.md §4.9's
// non-blocking waitpid-like check.
type PollSubagentsTool struct {
	Manager *subagent.Manager
}

func (t *PollSubagentsTool) Name() string { return "poll_subagents" }
func (t *PollSubagentsTool) Description() string {
	return "Checks all running subagents for completion and reports updated state."
}
func (t *PollSubagentsTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (t *PollSubagentsTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (t *PollSubagentsTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	return types.ToolOutput{Content: formatStatuses(t.Manager.Poll())}, nil
}

// KillSubagentTool terminates a running subagent.
type KillSubagentTool struct {
	Manager *subagent.Manager
}

func (t *KillSubagentTool) Name() string        { return "kill_subagent" }
func (t *KillSubagentTool) Description() string { return "Kills a running subagent by id." }
func (t *KillSubagentTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "string"}},
		"required":   []string{"id"},
	}
}
func (t *KillSubagentTool) SideEffect() types.SideEffectType { return types.SideEffectMutating }

func (t *KillSubagentTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	id, _ := input["id"].(string)
	if id == "" {
		return types.ToolOutput{Content: "Error: id is required", IsError: true}, nil
	}
	if err := t.Manager.Kill(id); err != nil {
		return types.ToolOutput{Content: err.Error(), IsError: true}, nil
	}
	return types.ToolOutput{Content: "killed"}, nil
}

// ReadSubagentOutputTool returns a finished subagent's captured
// stdout/stderr.
type ReadSubagentOutputTool struct {
	Manager *subagent.Manager
}

func (t *ReadSubagentOutputTool) Name() string { return "read_subagent_output" }
func (t *ReadSubagentOutputTool) Description() string {
	return "Reads the captured output of a finished subagent by id."
}
func (t *ReadSubagentOutputTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "string"}},
		"required":   []string{"id"},
	}
}
func (t *ReadSubagentOutputTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (t *ReadSubagentOutputTool) Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error) {
	id, _ := input["id"].(string)
	if id == "" {
		return types.ToolOutput{Content: "Error: id is required", IsError: true}, nil
	}
	out, err := t.Manager.ReadOutput(id)
	if err != nil {
		return types.ToolOutput{Content: err.Error(), IsError: true}, nil
	}
	return types.ToolOutput{Content: out}, nil
}
