// Package loop implements the bounded tool-use loop of spec.md §4.8: one
// user turn repeatedly assembles a prompt, calls the inference provider,
// scans the reply for a TOOL_CALL block, executes it, and re-prompts with
// the framed result until the model answers in plain text or a loop guard
// trips. Grounded on the teacher's pkg/agent/loop.go turn structure,
// stripped of the hook chain and multi-turn control-channel machinery that
// have no counterpart in spec.md's fixed pipeline (see DESIGN.md).
package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentcore/agentcore/pkg/conversation"
	"github.com/agentcore/agentcore/pkg/prompt"
	"github.com/agentcore/agentcore/pkg/provider"
	"github.com/agentcore/agentcore/pkg/tools"
	"github.com/agentcore/agentcore/pkg/types"
)

// DefaultMaxToolIterations is spec.md §4.8 step 5's default loop guard.
const DefaultMaxToolIterations = 5

// ExitReason records why RunTurn stopped generating.
type ExitReason string

const (
	ExitEndTurn           ExitReason = "end_turn"
	ExitMaxToolIterations ExitReason = "max_tool_iterations"
	ExitRepeatedCall      ExitReason = "repeated_call"
	ExitRateExhausted     ExitReason = "rate_exhausted"
)

// Result is the outcome of one user turn.
type Result struct {
	Text       string
	Reason     ExitReason
	Iterations int
}

// Config wires the loop to its collaborators. PromptBase carries the parts
// of the system prompt that do not change within a turn (tool catalog,
// skills, system context, autonomy level, project notes); Loop fills in
// ContextWindow from the provider on every turn.
type Config struct {
	Provider          provider.Provider
	Assembler         *prompt.Assembler
	PromptBase        prompt.Config
	Executor          *tools.Executor
	Store             *conversation.Store
	Compactor         *conversation.Compactor
	MaxToolIterations int
}

// Loop runs turns against Config's collaborators.
type Loop struct {
	cfg Config
}

// New builds a Loop. A zero MaxToolIterations in cfg is replaced with
// DefaultMaxToolIterations.
func New(cfg Config) *Loop {
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = DefaultMaxToolIterations
	}
	return &Loop{cfg: cfg}
}

// RunTurn appends userInput to the (itemID, sessionID) conversation and
// drives the tool-use loop until a final answer is reached.
func (l *Loop) RunTurn(ctx context.Context, itemID, sessionID, userInput string) (Result, error) {
	if l.cfg.Executor != nil {
		l.cfg.Executor.ResetPrompt(sessionID)
	}

	if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleUser, userInput); err != nil {
		return Result{}, fmt.Errorf("loop: append user message: %w", err)
	}

	systemPrompt := l.assemble()

	var lastCall ParsedToolCall
	var lastResult string
	haveLastCall := false
	iteration := 0

	for {
		select {
		case <-ctx.Done():
			return Result{Text: lastResult, Reason: ExitMaxToolIterations, Iterations: iteration}, ctx.Err()
		default:
		}

		history, err := l.cfg.Store.Load(itemID, sessionID)
		if err != nil {
			return Result{}, fmt.Errorf("loop: load history: %w", err)
		}

		if l.cfg.Compactor != nil {
			history, err = l.compactIfNeeded(itemID, sessionID, systemPrompt, history)
			if err != nil {
				return Result{}, fmt.Errorf("loop: compact history: %w", err)
			}
		}

		req := provider.GenerateRequest{History: toProviderMessages(history.Messages)}
		if iteration == 0 {
			// Only the first generate call of a turn carries the system
			// prompt; sub-turns after a tool call skip the re-emit and rely
			// on the appended framed tool result to drive continuation.
			req.Prompt = systemPrompt
		}

		text, err := l.cfg.Provider.Generate(ctx, req, nil)
		if err != nil {
			return Result{Iterations: iteration}, fmt.Errorf("loop: generate: %w", err)
		}

		call, ok := ParseToolCall(text)
		if !ok {
			if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleAssistant, text); err != nil {
				return Result{}, fmt.Errorf("loop: append assistant message: %w", err)
			}
			return Result{Text: text, Reason: ExitEndTurn, Iterations: iteration + 1}, nil
		}

		if iteration >= l.cfg.MaxToolIterations {
			if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleAssistant, text); err != nil {
				return Result{}, fmt.Errorf("loop: append assistant message: %w", err)
			}
			final := lastResult
			if !haveLastCall {
				final = text
			}
			return Result{Text: final, Reason: ExitMaxToolIterations, Iterations: iteration + 1}, nil
		}

		if haveLastCall && call.Name == lastCall.Name && call.raw == lastCall.raw {
			if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleAssistant, text); err != nil {
				return Result{}, fmt.Errorf("loop: append assistant message: %w", err)
			}
			return Result{Text: lastResult, Reason: ExitRepeatedCall, Iterations: iteration + 1}, nil
		}

		framed, rateExhausted := l.executeAndFrame(ctx, sessionID, call)

		if rateExhausted {
			// spec.md section 7: a per-prompt RateExhausted terminates the loop
			// rather than feeding the refusal back for another generation
			// round. Section 8 scenario 4: the turn ends with the last
			// successful tool result, not the refusal itself.
			if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleAssistant, text); err != nil {
				return Result{}, fmt.Errorf("loop: append assistant message: %w", err)
			}
			return Result{Text: lastResult, Reason: ExitRateExhausted, Iterations: iteration + 1}, nil
		}

		if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleAssistant, text); err != nil {
			return Result{}, fmt.Errorf("loop: append assistant message: %w", err)
		}
		if _, err := l.cfg.Store.Append(itemID, sessionID, conversation.RoleUser, framed); err != nil {
			return Result{}, fmt.Errorf("loop: append tool result message: %w", err)
		}

		lastCall, lastResult, haveLastCall = call, framed, true
		iteration++
	}
}

// executeAndFrame invokes the tool and wraps its output in spec.md §4.8
// step 7's fixed frame: "[Tool <name> result|error]\n<sanitised_output>". The
// second return value reports whether the error was a per-prompt
// ErrRateExhausted refusal, which RunTurn treats as an immediate exit
// rather than another generation round.
func (l *Loop) executeAndFrame(ctx context.Context, sessionID string, call ParsedToolCall) (string, bool) {
	output, err := l.cfg.Executor.Execute(ctx, sessionID, call.Name, call.Input)
	if err != nil {
		framed := fmt.Sprintf("[Tool %s error]\n%s", call.Name, err.Error())
		return framed, errors.Is(err, types.ErrRateExhausted)
	}
	if output.IsError {
		return fmt.Sprintf("[Tool %s error]\n%s", call.Name, output.Content), false
	}
	return fmt.Sprintf("[Tool %s result]\n%s", call.Name, output.Content), false
}

// compactIfNeeded runs compaction (spec.md §4.7) against the in-memory
// history and persists the result if the trigger fires, never crossing the
// boundary of the most recently created checkpoint.
func (l *Loop) compactIfNeeded(itemID, sessionID, systemPrompt string, history conversation.History) (conversation.History, error) {
	contextWindow := l.cfg.Provider.ContextWindow()
	sysTokens := conversation.EstimateTokens(systemPrompt)
	if !l.cfg.Compactor.ShouldCompact(sysTokens, contextWindow, history) {
		return history, nil
	}

	checkpoints, err := l.cfg.Store.ListCheckpoints(itemID, sessionID)
	if err != nil {
		return history, err
	}
	boundary := checkpointBoundary(checkpoints)

	compacted := l.cfg.Compactor.Compact(sysTokens, contextWindow, history, boundary)
	if err := l.cfg.Store.Replace(itemID, sessionID, compacted); err != nil {
		return history, err
	}
	return conversation.History{ItemID: itemID, SessionID: sessionID, Messages: compacted}, nil
}

// checkpointBoundary returns the message count protected by the most
// recently created checkpoint, or 0 if none exists.
func checkpointBoundary(checkpoints []conversation.Checkpoint) int {
	if len(checkpoints) == 0 {
		return 0
	}
	latest := checkpoints[0]
	for _, c := range checkpoints[1:] {
		if c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return len(latest.MessageUUIDs)
}

func (l *Loop) assemble() string {
	cfg := l.cfg.PromptBase
	cfg.ContextWindow = l.cfg.Provider.ContextWindow()
	return l.cfg.Assembler.Assemble(cfg)
}

func toProviderMessages(messages []conversation.Message) []provider.Message {
	out := make([]provider.Message, len(messages))
	for i, m := range messages {
		out[i] = provider.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
