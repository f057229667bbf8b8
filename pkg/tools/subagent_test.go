package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentcore/agentcore/pkg/subagent"
)

func pollUntilTerminal(t *testing.T, poll *PollSubagentsTool, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		out, err := poll.Execute(context.Background(), nil)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if strings.Contains(out.Content, id) {
			for _, line := range strings.Split(out.Content, "\n") {
				if strings.HasPrefix(line, id) && (strings.Contains(line, "done") || strings.Contains(line, "failed") || strings.Contains(line, "killed")) {
					return
				}
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subagent %s did not reach a terminal state in time", id)
}

func TestSpawnSubagentTool_SpawnsAndIsListed(t *testing.T) {
	mgr := subagent.NewManager(t.TempDir())
	spawn := &SpawnSubagentTool{Manager: mgr}
	list := &ListSubagentsTool{Manager: mgr}
	poll := &PollSubagentsTool{Manager: mgr}
	readOut := &ReadSubagentOutputTool{Manager: mgr}

	out, err := spawn.Execute(context.Background(), map[string]any{
		"name":    "greet",
		"command": []any{"sh", "-c", "echo hi"},
	})
	if err != nil || out.IsError {
		t.Fatalf("spawn failed: err=%v out=%+v", err, out)
	}
	id := out.Content

	listOut, err := list.Execute(context.Background(), nil)
	if err != nil || !strings.Contains(listOut.Content, id) {
		t.Fatalf("expected %s in list output, got %q (err=%v)", id, listOut.Content, err)
	}

	pollUntilTerminal(t, poll, id)

	readOutResult, err := readOut.Execute(context.Background(), map[string]any{"id": id})
	if err != nil || readOutResult.IsError {
		t.Fatalf("read output failed: err=%v out=%+v", err, readOutResult)
	}
	if !strings.Contains(readOutResult.Content, "hi") {
		t.Fatalf("unexpected output: %q", readOutResult.Content)
	}
}

func TestSpawnSubagentTool_RejectsEmptyCommand(t *testing.T) {
	mgr := subagent.NewManager(t.TempDir())
	spawn := &SpawnSubagentTool{Manager: mgr}

	out, err := spawn.Execute(context.Background(), map[string]any{"name": "x", "command": []any{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsError {
		t.Fatal("expected an error result for empty command")
	}
}

func TestKillSubagentTool_KillsRunningSubagent(t *testing.T) {
	mgr := subagent.NewManager(t.TempDir())
	spawn := &SpawnSubagentTool{Manager: mgr}
	kill := &KillSubagentTool{Manager: mgr}
	poll := &PollSubagentsTool{Manager: mgr}

	out, err := spawn.Execute(context.Background(), map[string]any{
		"name":    "sleeper",
		"command": []any{"sleep", "30"},
	})
	if err != nil || out.IsError {
		t.Fatalf("spawn failed: err=%v out=%+v", err, out)
	}
	id := out.Content

	time.Sleep(20 * time.Millisecond)
	poll.Execute(context.Background(), nil)

	killOut, err := kill.Execute(context.Background(), map[string]any{"id": id})
	if err != nil || killOut.IsError {
		t.Fatalf("kill failed: err=%v out=%+v", err, killOut)
	}

	pollUntilTerminal(t, poll, id)
}

func TestKillSubagentTool_RequiresID(t *testing.T) {
	mgr := subagent.NewManager(t.TempDir())
	kill := &KillSubagentTool{Manager: mgr}

	out, err := kill.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsError {
		t.Fatal("expected an error result when id is missing")
	}
}
