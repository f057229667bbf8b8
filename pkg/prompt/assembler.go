// Package prompt assembles the system prompt handed to the inference
// provider on every turn: identity, tool catalog, skill catalog, system
// context, level-dependent rules text, and project context, sized to the
// model's reported context window.
package prompt

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/agentcore/agentcore/pkg/types"
)

// compactContextWindow is the threshold below which the assembler drops the
// worked tool-call example and trims per-tool descriptions to one line, per
// spec.md §4.5's adaptive-sizing requirement for small context windows.
const compactContextWindow = 2048

// fullExampleContextWindow is the threshold at or above which a full worked
// TOOL_CALL example is always included.
const fullExampleContextWindow = 4096

// ToolInfo is the minimal shape the assembler needs from a registered tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// SystemContext carries host facts injected verbatim into the prompt.
type SystemContext struct {
	OS       string
	Arch     string
	Kernel   string
	Hostname string
	Workdir  string
	Shell    string
}

// Config is everything the assembler needs to build one system prompt.
type Config struct {
	Level         types.AutonomyLevel
	Tools         []ToolInfo
	Skills        *SkillRegistry
	System        SystemContext
	ProjectNotes  string // e.g. an AGENTS.md-equivalent project file's content
	ContextWindow int    // model's reported context window, in tokens
}

// Assembler builds the system prompt text for a turn.
type Assembler struct{}

func NewAssembler() *Assembler { return &Assembler{} }

// Assemble returns the full system prompt for cfg.
func (a *Assembler) Assemble(cfg Config) string {
	compact := cfg.ContextWindow > 0 && cfg.ContextWindow < compactContextWindow
	includeExample := cfg.ContextWindow == 0 || cfg.ContextWindow >= fullExampleContextWindow || !compact

	parts := []string{
		buildIdentitySection(cfg.Level),
		buildToolCatalogSection(cfg.Tools, compact),
		buildToolCallProtocolSection(includeExample, cfg.Tools),
		buildSkillCatalogSection(cfg.Skills),
		buildSystemContextSection(cfg.System),
		buildLevelRulesSection(cfg.Level),
	}
	if strings.TrimSpace(cfg.ProjectNotes) != "" {
		parts = append(parts, "# Project context\n\n"+strings.TrimSpace(cfg.ProjectNotes))
	}

	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, "\n\n")
}

func buildIdentitySection(level types.AutonomyLevel) string {
	return fmt.Sprintf(
		"You are a local, tool-using task-management assistant running with "+
			"autonomy level %q. You act on the user's machine through a fixed set "+
			"of tools; you cannot act outside of them. Use tools to read and change "+
			"state rather than guessing. Be direct and concise.",
		level.String(),
	)
}

func buildToolCatalogSection(tools []ToolInfo, compact bool) string {
	if len(tools) == 0 {
		return ""
	}
	sorted := make([]ToolInfo, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("# Tools\n\nYou can call the following tools:\n\n")
	for _, t := range sorted {
		desc := t.Description
		if compact {
			if idx := strings.IndexByte(desc, '\n'); idx >= 0 {
				desc = desc[:idx]
			}
			if len(desc) > 120 {
				desc = desc[:120]
			}
		}
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, desc)
		if !compact {
			for _, field := range schemaFieldNames(t.InputSchema) {
				fmt.Fprintf(&b, "    - input field: %s\n", field)
			}
		}
	}
	return b.String()
}

func schemaFieldNames(schema map[string]any) []string {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildToolCallProtocolSection(includeExample bool, tools []ToolInfo) string {
	var b strings.Builder
	b.WriteString("# Calling a tool\n\n")
	b.WriteString("To call a tool, output exactly this and nothing else in the same turn:\n\n")
	b.WriteString("TOOL_CALL:\n<tool_name>\n<input, one \"key: value\" pair per line>\nEND_TOOL_CALL\n\n")
	b.WriteString("Do not wrap this block in markdown code fences. Do not call more than one " +
		"tool per reply. If your reply contains no TOOL_CALL block, it is treated as your " +
		"final answer to the user and the turn ends.")

	if includeExample && len(tools) > 0 {
		name := tools[0].Name
		b.WriteString("\n\nExample:\n\nTOOL_CALL:\n")
		b.WriteString(name)
		b.WriteString("\npath: /workspace/notes.txt\nEND_TOOL_CALL")
	}
	return b.String()
}

func buildSkillCatalogSection(reg *SkillRegistry) string {
	if reg == nil {
		return ""
	}
	list := reg.FormatSkillsList()
	if list == "" {
		return ""
	}
	return "# Skills\n\nThe following skills are available as guidance documents " +
		"(not tools) you may choose to follow:\n\n" + list
}

func buildSystemContextSection(sc SystemContext) string {
	os_ := sc.OS
	if os_ == "" {
		os_ = runtime.GOOS
	}
	arch := sc.Arch
	if arch == "" {
		arch = runtime.GOARCH
	}
	var b strings.Builder
	b.WriteString("# System context\n\n")
	fmt.Fprintf(&b, "- OS: %s/%s\n", os_, arch)
	if sc.Kernel != "" {
		fmt.Fprintf(&b, "- Kernel: %s\n", sc.Kernel)
	}
	if sc.Hostname != "" {
		fmt.Fprintf(&b, "- Host: %s\n", sc.Hostname)
	}
	if sc.Workdir != "" {
		fmt.Fprintf(&b, "- Working directory: %s\n", sc.Workdir)
	}
	if sc.Shell != "" {
		fmt.Fprintf(&b, "- Shell: %s\n", sc.Shell)
	}
	return b.String()
}

func buildLevelRulesSection(level types.AutonomyLevel) string {
	var rules string
	switch level {
	case types.LevelNone:
		rules = "No tools are enabled. You may only answer from what is already in context."
	case types.LevelObserve:
		rules = "You may read files and run a small set of allow-listed read-only shell " +
			"commands. You may not write, delete, or run arbitrary shell commands."
	case types.LevelWorkspace:
		rules = "You may read and write within the workspace directory and run shell " +
			"commands there. You may not touch files outside the workspace or the user's " +
			"home directory."
	case types.LevelHome:
		rules = "You may read and write within the user's home directory, including " +
			"outside the workspace. Sensitive system paths remain off limits regardless " +
			"of level."
	case types.LevelFull:
		rules = "You may read and write anywhere the OS permits, including outside the " +
			"home directory. Sensitive system paths remain off limits regardless of level. " +
			"Mutating actions may still require human approval depending on policy."
	default:
		rules = "No tools are enabled."
	}
	return "# Rules for this session\n\n" + rules
}
