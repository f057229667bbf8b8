package autonomy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Prompter implements the human-approval gate: given a tool name and a
// human-readable description of what it's about to do, it returns whether
// the human approved. Grounded narrowly on the teacher's
// pkg/hooks/shell.go shell-callback idea — a script receiving context and
// returning a decision — without carrying forward the rest of the hooks
// system (deleted; see DESIGN.md).
type Prompter interface {
	Prompt(ctx context.Context, toolName, detail string) (approved bool, err error)
}

// TTYPrompter asks the question on an interactive terminal (r/w) and parses
// a y/n answer. Used when stdin is a real TTY.
type TTYPrompter struct {
	In  io.Reader
	Out io.Writer
}

func NewTTYPrompter(in io.Reader, out io.Writer) *TTYPrompter {
	return &TTYPrompter{In: in, Out: out}
}

func (p *TTYPrompter) Prompt(ctx context.Context, toolName, detail string) (bool, error) {
	fmt.Fprintf(p.Out, "Approve %s? %s [y/N]: ", toolName, detail)
	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

// AutoDenyPrompter denies every request without asking. Used headlessly,
// e.g. under Observe/Workspace levels where no human is expected to be
// attached, matching spec.md §4.1's "deny if no prompter is available".
type AutoDenyPrompter struct{}

func (AutoDenyPrompter) Prompt(context.Context, string, string) (bool, error) { return false, nil }

// ScriptPrompter delegates the approval decision to an external script: the
// tool name and detail are written to its stdin, and its exit code is the
// decision (0 = approve, nonzero = deny). Grounded on
// pkg/hooks/shell.go's ShellHookCallback JSON-on-stdin pattern, narrowed to
// a single yes/no decision since the rest of the hook protocol was dropped.
type ScriptPrompter struct {
	Command string
}

func NewScriptPrompter(command string) *ScriptPrompter {
	return &ScriptPrompter{Command: command}
}

func (p *ScriptPrompter) Prompt(ctx context.Context, toolName, detail string) (bool, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", p.Command)
	cmd.Stdin = strings.NewReader(fmt.Sprintf("tool: %s\ndetail: %s\n", toolName, detail))
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, err
}
