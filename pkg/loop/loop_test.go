package loop

import (
	"context"
	"testing"

	"github.com/agentcore/agentcore/pkg/audit"
	"github.com/agentcore/agentcore/pkg/autonomy"
	"github.com/agentcore/agentcore/pkg/conversation"
	"github.com/agentcore/agentcore/pkg/prompt"
	"github.com/agentcore/agentcore/pkg/provider"
	"github.com/agentcore/agentcore/pkg/tools"
	"github.com/agentcore/agentcore/pkg/types"
)

// echoTool is a side-effect-free test tool: it returns its "value" input
// verbatim, so tests can assert on exact framed tool output.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes its value input" }
func (echoTool) InputSchema() map[string]any {
	return map[string]any{"properties": map[string]any{"value": map[string]any{"type": "string"}}}
}
func (echoTool) SideEffect() types.SideEffectType { return types.SideEffectNone }
func (echoTool) Execute(_ context.Context, input map[string]any) (types.ToolOutput, error) {
	v, _ := input["value"].(string)
	return types.ToolOutput{Content: v}, nil
}

// scriptedProvider replays a fixed sequence of replies, one per Generate call.
type scriptedProvider struct {
	replies []string
	calls   int
	window  int
}

func (p *scriptedProvider) Name() string      { return "scripted" }
func (p *scriptedProvider) IsAvailable() bool { return true }
func (p *scriptedProvider) ContextWindow() int {
	if p.window == 0 {
		return 200_000
	}
	return p.window
}
func (p *scriptedProvider) Generate(_ context.Context, _ provider.GenerateRequest, _ provider.StreamCallback) (string, error) {
	if p.calls >= len(p.replies) {
		return p.replies[len(p.replies)-1], nil
	}
	reply := p.replies[p.calls]
	p.calls++
	return reply, nil
}

func newTestLoop(t *testing.T, replies []string) (*Loop, *scriptedProvider, *conversation.Store) {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	journal, err := audit.Open(t.TempDir() + "/audit.jsonl")
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	checker := autonomy.NewChecker(autonomy.CheckerConfig{
		Level:    types.LevelObserve,
		Commands: autonomy.DefaultCommandPolicy(),
		Prompter: autonomy.AutoDenyPrompter{},
	})
	executor := tools.NewExecutor(registry, checker, journal)

	store := conversation.NewStore(t.TempDir())
	t.Cleanup(func() { store.Close() })

	p := &scriptedProvider{replies: replies}

	l := New(Config{
		Provider:  p,
		Assembler: prompt.NewAssembler(),
		PromptBase: prompt.Config{
			Level: types.LevelObserve,
			Tools: []prompt.ToolInfo{{Name: "echo", Description: "echoes its value input"}},
		},
		Executor:  executor,
		Store:     store,
		Compactor: conversation.NewCompactor(),
	})
	return l, p, store
}

func TestLoop_PlainReplyEndsTurn(t *testing.T) {
	l, _, _ := newTestLoop(t, []string{"just an answer, no tool call"})

	result, err := l.RunTurn(context.Background(), "item1", "sess1", "hello")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if result.Reason != ExitEndTurn {
		t.Fatalf("expected end_turn, got %s", result.Reason)
	}
	if result.Text != "just an answer, no tool call" {
		t.Fatalf("unexpected final text: %q", result.Text)
	}
}

func TestLoop_ExecutesToolThenAnswers(t *testing.T) {
	replies := []string{
		"TOOL_CALL:\necho\nvalue: hi there\nEND_TOOL_CALL",
		"the tool said hi there",
	}
	l, _, store := newTestLoop(t, replies)

	result, err := l.RunTurn(context.Background(), "item1", "sess1", "say hi")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if result.Reason != ExitEndTurn {
		t.Fatalf("expected end_turn, got %s", result.Reason)
	}
	if result.Text != "the tool said hi there" {
		t.Fatalf("unexpected final text: %q", result.Text)
	}

	history, err := store.Load("item1", "sess1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var sawFramedResult bool
	for _, m := range history.Messages {
		if m.Content == "[Tool echo result]\nhi there" {
			sawFramedResult = true
		}
	}
	if !sawFramedResult {
		t.Fatalf("expected a framed tool result message in history, got %+v", history.Messages)
	}
}

func TestLoop_MaxToolIterationsGuardTrips(t *testing.T) {
	// More distinct tool calls than MaxToolIterations allows, so the guard
	// trips rather than the repeat-detector.
	replies := []string{
		"TOOL_CALL:\necho\nvalue: a\nEND_TOOL_CALL",
		"TOOL_CALL:\necho\nvalue: b\nEND_TOOL_CALL",
		"TOOL_CALL:\necho\nvalue: c\nEND_TOOL_CALL",
	}
	l, _, _ := newTestLoop(t, replies)
	l.cfg.MaxToolIterations = 2

	result, err := l.RunTurn(context.Background(), "item1", "sess1", "loop forever")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if result.Reason != ExitMaxToolIterations {
		t.Fatalf("expected max_tool_iterations, got %s", result.Reason)
	}
}

func TestLoop_RepeatedIdenticalCallShortCircuits(t *testing.T) {
	replies := []string{
		"TOOL_CALL:\necho\nvalue: same\nEND_TOOL_CALL",
		"TOOL_CALL:\necho\nvalue: same\nEND_TOOL_CALL",
	}
	l, p, _ := newTestLoop(t, replies)

	result, err := l.RunTurn(context.Background(), "item1", "sess1", "repeat")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if result.Reason != ExitRepeatedCall {
		t.Fatalf("expected repeated_call, got %s", result.Reason)
	}
	if result.Text != "[Tool echo result]\nsame" {
		t.Fatalf("unexpected result text: %q", result.Text)
	}
	if p.calls != 2 {
		t.Fatalf("expected exactly 2 generate calls (no third re-prompt), got %d", p.calls)
	}
}

func TestLoop_RateExhaustedEndsTurnWithLastResult(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	journal, err := audit.Open(t.TempDir() + "/audit.jsonl")
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	checker := autonomy.NewChecker(autonomy.CheckerConfig{
		Level:    types.LevelObserve,
		Commands: autonomy.DefaultCommandPolicy(),
		Prompter: autonomy.AutoDenyPrompter{},
	})
	executor := tools.NewExecutor(registry, checker, journal)
	executor.Budgets.MaxCallsPerPrompt = 1

	store := conversation.NewStore(t.TempDir())
	t.Cleanup(func() { store.Close() })

	replies := []string{
		"TOOL_CALL:\necho\nvalue: first\nEND_TOOL_CALL",
		"TOOL_CALL:\necho\nvalue: second\nEND_TOOL_CALL",
	}
	p := &scriptedProvider{replies: replies}

	l := New(Config{
		Provider:  p,
		Assembler: prompt.NewAssembler(),
		PromptBase: prompt.Config{
			Level: types.LevelObserve,
			Tools: []prompt.ToolInfo{{Name: "echo", Description: "echoes its value input"}},
		},
		Executor:  executor,
		Store:     store,
		Compactor: conversation.NewCompactor(),
	})

	result, err := l.RunTurn(context.Background(), "item1", "sess1", "two calls")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if result.Reason != ExitRateExhausted {
		t.Fatalf("expected rate_exhausted, got %s", result.Reason)
	}
	if result.Text != "[Tool echo result]\nfirst" {
		t.Fatalf("expected the last successful tool result, got %q", result.Text)
	}
	if p.calls != 2 {
		t.Fatalf("expected exactly 2 generate calls (no re-prompt after the refusal), got %d", p.calls)
	}
}

func TestParseToolCall_MissingEndMarkerTakesInputToEOF(t *testing.T) {
	text := "TOOL_CALL:\necho\nvalue: no closing marker here"
	call, ok := ParseToolCall(text)
	if !ok {
		t.Fatal("expected a tool call to be parsed")
	}
	if call.Name != "echo" {
		t.Fatalf("unexpected tool name: %q", call.Name)
	}
	if call.Input["value"] != "no closing marker here" {
		t.Fatalf("unexpected input: %+v", call.Input)
	}
}

func TestParseToolCall_NoMarkerIsFinalAnswer(t *testing.T) {
	if _, ok := ParseToolCall("just a plain reply"); ok {
		t.Fatal("expected no tool call to be parsed")
	}
}
