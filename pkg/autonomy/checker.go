package autonomy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore/agentcore/pkg/types"
)

// CheckerConfig configures a Checker. Zero-value fields default sensibly,
// following the teacher's Config-struct + New*(cfg) constructor idiom
// (pkg/permission.NewChecker).
type CheckerConfig struct {
	Level          types.AutonomyLevel
	Commands       CommandPolicy
	SensitivePaths *SensitivePathSet
	RateBudget     *RateBudget
	WriteCooldown  *WriteCooldown
	Prompter       Prompter
}

// Checker is the combined capability / command-policy / sensitive-path /
// rate / cooldown gate. A single coarse mutex protects the mutable counters
// it owns (rate budget, cooldown map); it is not held during handler
// execution or prompting.
type Checker struct {
	mu   sync.Mutex
	cfg  CheckerConfig
}

// NewChecker builds a Checker with defaulted sub-components.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.SensitivePaths == nil {
		cfg.SensitivePaths = NewSensitivePathSet()
	}
	if cfg.RateBudget == nil {
		cfg.RateBudget = NewRateBudget(120, time.Minute)
	}
	if cfg.WriteCooldown == nil {
		cfg.WriteCooldown = NewWriteCooldown(0)
	}
	if cfg.Prompter == nil {
		cfg.Prompter = AutoDenyPrompter{}
	}
	return &Checker{cfg: cfg}
}

// Level returns the checker's current autonomy level.
func (c *Checker) Level() types.AutonomyLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Level
}

// SetLevel updates the autonomy level, e.g. in response to a user command.
func (c *Checker) SetLevel(level types.AutonomyLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Level = level
}

// CheckCapability is the capability gate: does the current level grant cap?
func (c *Checker) CheckCapability(cap ToolCapability) error {
	level := c.Level()
	if !Matrix(level).Allows(cap) {
		return fmt.Errorf("%w: level %s does not grant this capability", types.ErrLevelForbidden, level)
	}
	return nil
}

// CheckRate is the rate gate.
func (c *Checker) CheckRate() error {
	if !c.cfg.RateBudget.Allow() {
		return types.ErrRateExhausted
	}
	return nil
}

// CheckSensitivePath is the sensitive-path gate. path must be canonicalized
// by the caller (the filesystem tool's path validator) before this is
// called.
func (c *Checker) CheckSensitivePath(path string) error {
	if c.cfg.SensitivePaths.IsSensitive(path) {
		return types.ErrSensitivePath
	}
	return nil
}

// CheckWriteCooldown is the write-cooldown gate.
func (c *Checker) CheckWriteCooldown(path string) error {
	if !c.cfg.WriteCooldown.Allow(path) {
		return types.ErrWriteCooldown
	}
	return nil
}

// CheckCommand is the command-policy gate, shell tools only. It returns the
// matched Behavior so the caller can decide whether to proceed straight to
// the handler (Allow), ask a human (Prompt), or refuse outright (Forbidden).
// At Observe, the policy is evaluated in allowlist-only mode per spec.md
// §3's Shell column for that level: no Prompt tier, unmatched commands are
// Forbidden rather than deferred to a human.
func (c *Checker) CheckCommand(command string) Behavior {
	if c.Level() == types.LevelObserve {
		behavior, _ := c.cfg.Commands.EvaluateAllowlistOnly(command)
		return behavior
	}
	behavior, _ := c.cfg.Commands.Evaluate(command)
	return behavior
}

// RequestApproval is the human-approval gate: blocks on the configured
// Prompter. Only called when CheckCommand returned BehaviorPrompt, or for
// any other tool whose side effect requires approval at the current level.
func (c *Checker) RequestApproval(ctx context.Context, toolName, detail string) error {
	approved, err := c.cfg.Prompter.Prompt(ctx, toolName, detail)
	if err != nil {
		return fmt.Errorf("%w: approval prompt failed: %v", types.ErrInternal, err)
	}
	if !approved {
		return types.ErrCommandDenied
	}
	return nil
}

// WriteRoot returns the filesystem root writes must stay under for the
// current level ("" meaning unrestricted at Full, and meaning "no writes"
// at None/Observe — callers must check CheckCapability(CapWrite) first).
func (c *Checker) WriteRoot() string {
	return Matrix(c.Level()).WriteRoot
}
