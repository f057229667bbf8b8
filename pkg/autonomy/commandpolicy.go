package autonomy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Behavior is the outcome of matching a shell command against the
// command-policy engine.
type Behavior int

const (
	BehaviorAllow Behavior = iota
	BehaviorPrompt
	BehaviorForbidden
)

// Rule is one entry in a command-policy list: a glob or literal-prefix
// pattern matched against the command string.
type Rule struct {
	Pattern string
}

// CommandPolicy is an ordered, three-tier rule set: Allow, Prompt, and
// Forbidden. Grounded on pkg/permission/rules.go's matchPattern (glob via
// doublestar, falling back to substring) and the "Forbidden beats Prompt
// beats Allow" precedence spec.md §4.2 requires when two rules of different
// tiers match with equal specificity.
type CommandPolicy struct {
	Allow     []Rule
	Prompt    []Rule
	Forbidden []Rule
}

// DefaultCommandPolicy returns a conservative baseline policy: common
// read-only commands allowed, destructive/system commands forbidden,
// everything else prompted.
func DefaultCommandPolicy() CommandPolicy {
	return CommandPolicy{
		Allow: []Rule{
			{Pattern: "ls *"}, {Pattern: "ls"}, {Pattern: "cat *"}, {Pattern: "pwd"},
			{Pattern: "git status"}, {Pattern: "git diff*"}, {Pattern: "git log*"},
			{Pattern: "echo *"}, {Pattern: "grep *"}, {Pattern: "find *"},
		},
		Forbidden: []Rule{
			{Pattern: "rm -rf /"}, {Pattern: "rm -rf /*"}, {Pattern: "mkfs*"},
			{Pattern: "dd if=*"}, {Pattern: ":(){:|:&};:"}, {Pattern: "shutdown*"},
			{Pattern: "reboot*"}, {Pattern: "> /dev/sda*"}, {Pattern: "chmod -R 777 /"},
		},
	}
}

// Evaluate returns the governing Behavior for command and, when a rule
// matched, the pattern that matched (for audit purposes).
func (p CommandPolicy) Evaluate(command string) (Behavior, string) {
	bestAllow, bestAllowLen := "", -1
	bestPrompt, bestPromptLen := "", -1
	bestForbidden, bestForbiddenLen := "", -1

	for _, r := range p.Allow {
		if matchCommand(r.Pattern, command) && len(r.Pattern) > bestAllowLen {
			bestAllow, bestAllowLen = r.Pattern, len(r.Pattern)
		}
	}
	for _, r := range p.Prompt {
		if matchCommand(r.Pattern, command) && len(r.Pattern) > bestPromptLen {
			bestPrompt, bestPromptLen = r.Pattern, len(r.Pattern)
		}
	}
	for _, r := range p.Forbidden {
		if matchCommand(r.Pattern, command) && len(r.Pattern) > bestForbiddenLen {
			bestForbidden, bestForbiddenLen = r.Pattern, len(r.Pattern)
		}
	}

	// Forbidden beats Prompt beats Allow regardless of match length; within
	// a single tier, the longest (most specific) pattern wins.
	switch {
	case bestForbiddenLen >= 0:
		return BehaviorForbidden, bestForbidden
	case bestPromptLen >= 0:
		return BehaviorPrompt, bestPrompt
	case bestAllowLen >= 0:
		return BehaviorAllow, bestAllow
	default:
		return BehaviorPrompt, ""
	}
}

// EvaluateAllowlistOnly applies the policy in the restricted mode spec.md §3
// requires at the Observe level: a command must match an explicit Allow
// rule outright, or it is Forbidden. There is no Prompt tier, since Observe
// never expects a human in the loop to approve a shell command.
func (p CommandPolicy) EvaluateAllowlistOnly(command string) (Behavior, string) {
	behavior, pattern := p.Evaluate(command)
	if behavior == BehaviorAllow {
		return behavior, pattern
	}
	return BehaviorForbidden, pattern
}

// matchCommand tries a glob match first, then a case-insensitive prefix
// match against the pattern with its trailing "*" stripped.
func matchCommand(pattern, command string) bool {
	if strings.ContainsAny(pattern, "*?[{") {
		if matched, err := doublestar.Match(pattern, command); err == nil && matched {
			return true
		}
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(strings.ToLower(command), strings.ToLower(prefix))
	}
	return strings.EqualFold(command, pattern)
}
