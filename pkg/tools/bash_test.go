package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agentcore/agentcore/pkg/types"
)

func TestBashSimpleCommand(t *testing.T) {
	tool := &BashTool{}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo hello"})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	if out.Content != "hello" {
		t.Errorf("got %q, want %q", out.Content, "hello")
	}
}

func TestBashStderrCapture(t *testing.T) {
	tool := &BashTool{}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo stderr_msg >&2"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "stderr_msg") {
		t.Errorf("expected stderr_msg in output, got %q", out.Content)
	}
}

func TestBashNonZeroExit(t *testing.T) {
	tool := &BashTool{}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "exit 1"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected IsError for non-zero exit")
	}
}

func TestBashTimeoutReturnsShellTimeoutKind(t *testing.T) {
	tool := &BashTool{}
	_, err := tool.Execute(context.Background(), map[string]any{
		"command":    "sleep 10",
		"timeout_ms": float64(100),
	})
	if !errors.Is(err, types.ErrShellTimeout) {
		t.Fatalf("expected ErrShellTimeout, got %v", err)
	}
}

func TestBashContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	tool := &BashTool{}
	_, err := tool.Execute(ctx, map[string]any{"command": "sleep 10"})
	if err == nil {
		t.Error("expected error on context cancel")
	}
}

func TestBashMissingCommand(t *testing.T) {
	tool := &BashTool{}
	out, err := tool.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError {
		t.Error("expected error for missing command")
	}
}

func TestBashCWD(t *testing.T) {
	tool := &BashTool{CWD: "/tmp"}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "pwd"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Content, "tmp") {
		t.Errorf("expected CWD /tmp, got %q", out.Content)
	}
}

func TestBashLargeOutputIsTruncated(t *testing.T) {
	tool := &BashTool{}
	out, err := tool.Execute(context.Background(), map[string]any{
		"command": "yes x | head -c 40000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Content) > shellMaxOutput+200 {
		t.Errorf("output not truncated: %d chars", len(out.Content))
	}
	if !strings.Contains(out.Content, "truncated") {
		t.Error("expected truncation message")
	}
}
