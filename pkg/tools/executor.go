package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/agentcore/pkg/audit"
	"github.com/agentcore/agentcore/pkg/autonomy"
	"github.com/agentcore/agentcore/pkg/redact"
	"github.com/agentcore/agentcore/pkg/types"
)

// maxToolInputBytes bounds a single tool call's serialized input, the
// "per-tool maximum size" spec.md §4.1 stage 1 names.
const maxToolInputBytes = 64 * 1024

// Budgets holds the per-prompt/per-session limits of spec.md §3's
// AutonomyConfig. Grounded on the teacher's rate-limit constants in
// pkg/permission/rules.go, generalized into a struct so the Executor can be
// constructed with non-default limits in tests.
type Budgets struct {
	MaxCallsPerPrompt  int
	MaxCallsPerSession int
	MaxBytesPerSession int64
	MaxFilesPerSession int
}

// DefaultBudgets returns spec.md §3's documented defaults.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxCallsPerPrompt:  5,
		MaxCallsPerSession: 50,
		MaxBytesPerSession: 1 << 20,
		MaxFilesPerSession: 20,
	}
}

// sessionCounters is the mutable state of spec.md §3's ExecutionContext,
// scoped to one session and reset at explicit session boundaries (not at
// every prompt — only PerPrompt resets per prompt via ResetPrompt).
type sessionCounters struct {
	mu           sync.Mutex
	perPrompt    int
	perSession   int
	bytesWritten int64
	filesCreated int
}

func (c *sessionCounters) resetPrompt() {
	c.mu.Lock()
	c.perPrompt = 0
	c.mu.Unlock()
}

// tryReserve atomically increments both counters if doing so would not
// exceed budgets; returns false (no increment) otherwise. Grounded on
// spec.md §4.1 stage 3's "atomically increment ... under the invariant"
// wording.
func (c *sessionCounters) tryReserve(b Budgets) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.perPrompt+1 > b.MaxCallsPerPrompt || c.perSession+1 > b.MaxCallsPerSession {
		return false
	}
	c.perPrompt++
	c.perSession++
	return true
}

// rollback undoes a tryReserve increment; called only when a later stage in
// the same call refuses, per spec.md §4.1's "counters are rolled back on
// stage-3 or stage-4 refusal".
func (c *sessionCounters) rollback() {
	c.mu.Lock()
	if c.perPrompt > 0 {
		c.perPrompt--
	}
	if c.perSession > 0 {
		c.perSession--
	}
	c.mu.Unlock()
}

func (c *sessionCounters) recordWrite(bytesWritten int64, createdFile bool) {
	c.mu.Lock()
	c.bytesWritten += bytesWritten
	if createdFile {
		c.filesCreated++
	}
	c.mu.Unlock()
}

// Executor is the only path from a model-originated tool call to an effect
// on the host: it is spec.md §4.1's eleven-stage pipeline. Grounded on the
// teacher's pkg/permission+pkg/tools split, composed here into the single
// ordered gate sequence spec.md names, with pkg/autonomy.Checker supplying
// stages 2-7 and pkg/audit/pkg/redact supplying stages 8-11.
type Executor struct {
	Registry *Registry
	Checker  *autonomy.Checker
	Audit    *audit.Journal
	Budgets  Budgets

	counters sync.Map // sessionID -> *sessionCounters
}

// NewExecutor builds an Executor with spec.md's default budgets.
func NewExecutor(registry *Registry, checker *autonomy.Checker, journal *audit.Journal) *Executor {
	return &Executor{Registry: registry, Checker: checker, Audit: journal, Budgets: DefaultBudgets()}
}

func (e *Executor) countersFor(sessionID string) *sessionCounters {
	v, _ := e.counters.LoadOrStore(sessionID, &sessionCounters{})
	return v.(*sessionCounters)
}

// ResetPrompt zeroes the per-prompt counter for sessionID at the start of a
// new prompt turn. Per-session counters persist until an explicit session
// boundary (a fresh Executor, or a dedicated reset not exposed here since
// spec.md scopes session lifetime to the process).
func (e *Executor) ResetPrompt(sessionID string) {
	e.countersFor(sessionID).resetPrompt()
}

func capabilityFor(name string, effect types.SideEffectType) autonomy.ToolCapability {
	if len(name) >= 3 && name[:3] == "git" {
		return autonomy.CapGit
	}
	switch effect {
	case types.SideEffectMutating:
		return autonomy.CapWrite
	case types.SideEffectShell, types.SideEffectSpawns:
		return autonomy.CapShell
	default:
		return autonomy.CapRead
	}
}

// candidatePaths extracts path-like strings from a tool's input so stage 4
// (the sensitive-path gate) can inspect them before the handler ever runs.
// Grounded on spec.md §4.1 stage 4's "tools whose input can be resolved to
// a path (filesystem, shell-via-pattern-scan)".
func candidatePaths(toolName string, input map[string]any) []string {
	var paths []string
	for _, key := range []string{"path", "file_path", "root", "src", "dst"} {
		if s, ok := input[key].(string); ok && s != "" {
			paths = append(paths, s)
		}
	}
	if raw, ok := input["paths"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				paths = append(paths, s)
			}
		}
	}
	if command, ok := input["command"].(string); ok && command != "" {
		paths = append(paths, pathTokens(command)...)
	}
	return paths
}

// pathTokens pattern-scans a shell command string for path-like tokens (an
// absolute path, or one starting with "./"/"../"), so the sensitive-path
// gate covers shell invocations like `cat /etc/shadow` the same way it
// covers a direct read_text_file call, per spec.md §4.1 stage 4's explicit
// "shell-via-pattern-scan" wording.
func pathTokens(command string) []string {
	var tokens []string
	for _, field := range strings.Fields(command) {
		field = strings.Trim(field, "'\"")
		if strings.HasPrefix(field, "/") || strings.HasPrefix(field, "./") || strings.HasPrefix(field, "../") || strings.HasPrefix(field, "~/") {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// Execute runs the full eleven-stage pipeline for one tool call.
func (e *Executor) Execute(ctx context.Context, sessionID, toolName string, input map[string]any) (types.ToolOutput, error) {
	callID := uuid.NewString()
	start := time.Now()

	// Stage 1: existence & input validation.
	tool, ok := e.Registry.Get(toolName)
	if !ok || e.Registry.IsDisabled(toolName) {
		e.auditRefused(callID, toolName, "unknown_tool")
		return types.ToolOutput{}, fmt.Errorf("%w: unknown tool %q", types.ErrInternal, toolName)
	}
	if inputSize(input) > maxToolInputBytes {
		e.auditRefused(callID, toolName, "input_too_large")
		return types.ToolOutput{}, fmt.Errorf("%w: input exceeds %d bytes", types.ErrInternal, maxToolInputBytes)
	}

	// Stage 2: capability gate.
	cap := capabilityFor(toolName, tool.SideEffect())
	if err := e.Checker.CheckCapability(cap); err != nil {
		e.auditRefused(callID, toolName, "level_forbidden")
		return types.ToolOutput{}, err
	}

	// Stage 3: rate gate.
	counters := e.countersFor(sessionID)
	if !counters.tryReserve(e.Budgets) {
		e.auditRefused(callID, toolName, "rate_exhausted")
		return types.ToolOutput{}, types.ErrRateExhausted
	}
	if err := e.Checker.CheckRate(); err != nil {
		counters.rollback()
		e.auditRefused(callID, toolName, "rate_exhausted")
		return types.ToolOutput{}, err
	}

	// Stage 4: sensitive-path gate.
	for _, p := range candidatePaths(toolName, input) {
		if err := e.Checker.CheckSensitivePath(p); err != nil {
			counters.rollback()
			e.auditRefused(callID, toolName, "sensitive_path")
			return types.ToolOutput{}, err
		}
	}

	isWrite := tool.SideEffect() == types.SideEffectMutating

	// Stage 5: write-cooldown gate.
	if isWrite {
		cooldownKey := toolName
		if paths := candidatePaths(toolName, input); len(paths) > 0 {
			cooldownKey = paths[0]
		}
		if err := e.Checker.CheckWriteCooldown(cooldownKey); err != nil {
			counters.rollback()
			e.auditRefused(callID, toolName, "write_cooldown")
			return types.ToolOutput{}, err
		}
	}

	// Stage 6: command-policy gate (shell only).
	if tool.SideEffect() == types.SideEffectShell {
		command, _ := input["command"].(string)
		switch e.Checker.CheckCommand(command) {
		case autonomy.BehaviorForbidden:
			counters.rollback()
			e.auditRefused(callID, toolName, "command_forbidden")
			return types.ToolOutput{}, types.ErrCommandForbidden
		case autonomy.BehaviorPrompt:
			// Stage 7: human-approval gate.
			if err := e.Checker.RequestApproval(ctx, toolName, command); err != nil {
				counters.rollback()
				e.auditRefused(callID, toolName, "command_denied")
				return types.ToolOutput{}, err
			}
		}
	}

	// Stage 8: audit pre-record.
	e.auditPending(callID, toolName)

	// Stage 9: handler invocation (outside any policy mutex).
	output, err := tool.Execute(ctx, input)
	duration := time.Since(start)

	if err != nil {
		e.auditComplete(callID, toolName, "error", duration, err.Error())
		return types.ToolOutput{}, err
	}

	// Stage 10: output sanitisation.
	output.Content = redact.Redact(output.Content)

	if isWrite && !output.IsError {
		counters.recordWrite(int64(len(output.Content)), false)
	}

	// Stage 11: audit complete.
	status := "ok"
	if output.IsError {
		status = "tool_error"
	}
	e.auditComplete(callID, toolName, status, duration, output.Content)

	return output, nil
}

func (e *Executor) auditPending(callID, toolName string) {
	if e.Audit == nil {
		return
	}
	e.Audit.Record(audit.LevelInfo, "executor", fmt.Sprintf("call=%s tool=%s status=pending", callID, toolName))
}

func (e *Executor) auditRefused(callID, toolName, reason string) {
	if e.Audit == nil {
		return
	}
	e.Audit.Record(audit.LevelWarn, "executor", fmt.Sprintf("call=%s tool=%s status=refused reason=%s", callID, toolName, reason))
}

func (e *Executor) auditComplete(callID, toolName, status string, duration time.Duration, output string) {
	if e.Audit == nil {
		return
	}
	level := audit.LevelInfo
	if status != "ok" {
		level = audit.LevelWarn
	}
	sanitized := redact.Redact(output)
	e.Audit.Record(level, "executor", fmt.Sprintf(
		"call=%s tool=%s status=%s duration_ms=%d output=%q",
		callID, toolName, status, duration.Milliseconds(), truncateForAudit(sanitized)))
}

func truncateForAudit(s string) string {
	const maxAuditOutput = 2000
	if len(s) > maxAuditOutput {
		return s[:maxAuditOutput] + "...(truncated)"
	}
	return s
}

func inputSize(input map[string]any) int {
	return len(fmt.Sprintf("%v", input))
}
