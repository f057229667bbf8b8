package subagent

import (
	"context"
	"strings"
	"testing"
	"time"
)

func waitForTerminal(t *testing.T, m *Manager, id string) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range m.Poll() {
			if s.ID == id && s.State.Terminal() {
				return s
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subagent %s did not reach a terminal state in time", id)
	return Status{}
}

func TestManager_SpawnDoneAndReadOutput(t *testing.T) {
	m := NewManager(t.TempDir())
	id, err := m.Spawn(context.Background(), "greet", []string{"sh", "-c", "echo hello"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	status := waitForTerminal(t, m, id)
	if status.State != StateDone {
		t.Fatalf("expected StateDone, got %s (err=%s)", status.State, status.Err)
	}

	out, err := m.ReadOutput(id)
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestManager_SpawnNonZeroExitIsFailed(t *testing.T) {
	m := NewManager(t.TempDir())
	id, err := m.Spawn(context.Background(), "boom", []string{"sh", "-c", "exit 3"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	status := waitForTerminal(t, m, id)
	if status.State != StateFailed {
		t.Fatalf("expected StateFailed, got %s", status.State)
	}
	if status.Err == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestManager_KillTransitionsToKilled(t *testing.T) {
	m := NewManager(t.TempDir())
	id, err := m.Spawn(context.Background(), "sleeper", []string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// give the process a moment to actually start running.
	time.Sleep(20 * time.Millisecond)
	m.Poll()

	if err := m.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	status := waitForTerminal(t, m, id)
	if status.State != StateKilled {
		t.Fatalf("expected StateKilled, got %s", status.State)
	}
}

func TestManager_ReadOutputBeforeTerminalFails(t *testing.T) {
	m := NewManager(t.TempDir())
	id, err := m.Spawn(context.Background(), "sleeper", []string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer m.Kill(id)

	if _, err := m.ReadOutput(id); err != ErrNotTerminal {
		t.Fatalf("expected ErrNotTerminal, got %v", err)
	}
}

func TestManager_FreeRemovesRecordAndOutputFile(t *testing.T) {
	m := NewManager(t.TempDir())
	id, err := m.Spawn(context.Background(), "greet", []string{"sh", "-c", "echo hi"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	waitForTerminal(t, m, id)

	if err := m.Free(id); err != nil {
		t.Fatalf("Free: %v", err)
	}

	if _, err := m.ReadOutput(id); err != ErrUnknownID {
		t.Fatalf("expected ErrUnknownID after Free, got %v", err)
	}

	found := false
	for _, s := range m.List() {
		if s.ID == id {
			found = true
		}
	}
	if found {
		t.Fatal("expected record to be gone from List after Free")
	}
}

func TestManager_SpawnRejectsOverCapacity(t *testing.T) {
	m := NewManager(t.TempDir())
	ids := make([]string, 0, MaxConcurrent)
	for i := 0; i < MaxConcurrent; i++ {
		id, err := m.Spawn(context.Background(), "sleeper", []string{"sleep", "30"})
		if err != nil {
			t.Fatalf("Spawn %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	if _, err := m.Spawn(context.Background(), "overflow", []string{"sleep", "30"}); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}

	for _, id := range ids {
		m.Kill(id)
	}
}
