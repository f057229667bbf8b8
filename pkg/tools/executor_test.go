package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentcore/agentcore/pkg/audit"
	"github.com/agentcore/agentcore/pkg/autonomy"
	"github.com/agentcore/agentcore/pkg/types"
)

type approvingPrompter struct{}

func (approvingPrompter) Prompt(context.Context, string, string) (bool, error) { return true, nil }

func newTestExecutor(t *testing.T, level types.AutonomyLevel, prompter autonomy.Prompter) (*Executor, *Registry, string) {
	t.Helper()
	dir := t.TempDir()
	validator := NewPathValidator(dir, []string{dir}, []string{dir})

	registry := NewRegistry()
	registry.Register(&ReadTextFileTool{Validator: validator})
	registry.Register(&WriteFileTool{Validator: validator})
	registry.Register(&BashTool{})

	checker := autonomy.NewChecker(autonomy.CheckerConfig{
		Level:    level,
		Commands: autonomy.DefaultCommandPolicy(),
		Prompter: prompter,
	})

	journalPath := filepath.Join(t.TempDir(), "audit.log")
	journal, err := audit.Open(journalPath)
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	return NewExecutor(registry, checker, journal), registry, dir
}

func TestExecutor_CapabilityGateRefusesBelowLevel(t *testing.T) {
	exec, _, dir := newTestExecutor(t, types.LevelObserve, autonomy.AutoDenyPrompter{})
	_, err := exec.Execute(context.Background(), "s1", "write_file", map[string]any{
		"path": filepath.Join(dir, "x.txt"), "content": "hi",
	})
	if err == nil {
		t.Fatal("expected capability gate to refuse write at Observe level")
	}
}

func TestExecutor_UnknownToolRefused(t *testing.T) {
	exec, _, _ := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	_, err := exec.Execute(context.Background(), "s1", "nonexistent_tool", map[string]any{})
	if err == nil {
		t.Fatal("expected unknown tool to be refused")
	}
}

func TestExecutor_RateGateRefusesAfterPerPromptBudget(t *testing.T) {
	exec, _, dir := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	exec.Budgets.MaxCallsPerPrompt = 2

	path := filepath.Join(dir, "read.txt")
	writeOut, err := exec.Execute(context.Background(), "s1", "write_file", map[string]any{"path": path, "content": "hello"})
	if err != nil || writeOut.IsError {
		t.Fatalf("setup write failed: %v %+v", err, writeOut)
	}

	if _, err := exec.Execute(context.Background(), "s1", "read_text_file", map[string]any{"path": path}); err != nil {
		t.Fatalf("second call should still be within budget: %v", err)
	}
	if _, err := exec.Execute(context.Background(), "s1", "read_text_file", map[string]any{"path": path}); err == nil {
		t.Fatal("expected third call to exceed per-prompt budget")
	}

	exec.ResetPrompt("s1")
	if _, err := exec.Execute(context.Background(), "s1", "read_text_file", map[string]any{"path": path}); err != nil {
		t.Fatalf("expected call to succeed after ResetPrompt: %v", err)
	}
}

func TestExecutor_SensitivePathRefused(t *testing.T) {
	exec, registry, _ := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	registry.Register(&WriteFileTool{Validator: NewPathValidator("/", []string{"/"}, []string{"/"})})
	_, err := exec.Execute(context.Background(), "s1", "write_file", map[string]any{
		"path": "/etc/shadow", "content": "x",
	})
	if err == nil {
		t.Fatal("expected sensitive-path gate to refuse write to /etc/shadow")
	}
}

func TestExecutor_CommandForbiddenRefused(t *testing.T) {
	exec, _, _ := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	_, err := exec.Execute(context.Background(), "s1", "run_shell_command", map[string]any{"command": "rm -rf /"})
	if err == nil {
		t.Fatal("expected forbidden command to be refused before the handler runs")
	}
}

func TestExecutor_CommandPromptApprovedRuns(t *testing.T) {
	exec, _, _ := newTestExecutor(t, types.LevelFull, approvingPrompter{})
	out, err := exec.Execute(context.Background(), "s1", "run_shell_command", map[string]any{"command": "curl http://example.com"})
	if err != nil {
		t.Fatalf("expected approved prompt command to run: %v", err)
	}
	_ = out
}

func TestExecutor_CommandPromptDeniedRefused(t *testing.T) {
	exec, _, _ := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	_, err := exec.Execute(context.Background(), "s1", "run_shell_command", map[string]any{"command": "curl http://example.com"})
	if err == nil {
		t.Fatal("expected auto-deny prompter to refuse a Prompt-tier command")
	}
}

func TestExecutor_HappyPathWriteThenRead(t *testing.T) {
	exec, _, dir := newTestExecutor(t, types.LevelFull, autonomy.AutoDenyPrompter{})
	path := filepath.Join(dir, "note.txt")

	writeOut, err := exec.Execute(context.Background(), "s1", "write_file", map[string]any{"path": path, "content": "hello world"})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if writeOut.IsError {
		t.Fatalf("unexpected tool error: %s", writeOut.Content)
	}

	readOut, err := exec.Execute(context.Background(), "s1", "read_text_file", map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if readOut.Content != "hello world" {
		t.Errorf("expected round-tripped content, got %q", readOut.Content)
	}
}

func TestCapabilityFor_GitToolUsesCapGit(t *testing.T) {
	if got := capabilityFor("git", types.SideEffectMutating); got != autonomy.CapGit {
		t.Errorf("expected CapGit for git tool, got %v", got)
	}
	if got := capabilityFor("write_file", types.SideEffectMutating); got != autonomy.CapWrite {
		t.Errorf("expected CapWrite for write_file, got %v", got)
	}
	if got := capabilityFor("bash", types.SideEffectShell); got != autonomy.CapShell {
		t.Errorf("expected CapShell for bash, got %v", got)
	}
	if got := capabilityFor("read_text_file", types.SideEffectReadOnly); got != autonomy.CapRead {
		t.Errorf("expected CapRead for read_text_file, got %v", got)
	}
}
