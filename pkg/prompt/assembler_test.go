package prompt

import (
	"strings"
	"testing"

	"github.com/agentcore/agentcore/pkg/types"
)

func TestAssembleIncludesToolCallProtocol(t *testing.T) {
	a := NewAssembler()
	out := a.Assemble(Config{
		Level: types.LevelWorkspace,
		Tools: []ToolInfo{{Name: "read_text_file", Description: "Read a text file."}},
	})
	if !strings.Contains(out, "TOOL_CALL:") || !strings.Contains(out, "END_TOOL_CALL") {
		t.Fatalf("expected TOOL_CALL protocol block, got:\n%s", out)
	}
	if !strings.Contains(out, "read_text_file") {
		t.Fatalf("expected tool catalog to list read_text_file, got:\n%s", out)
	}
}

func TestAssembleCompactDropsExampleAndTrimsDescriptions(t *testing.T) {
	a := NewAssembler()
	longDesc := strings.Repeat("x", 300)
	out := a.Assemble(Config{
		Level:         types.LevelObserve,
		Tools:         []ToolInfo{{Name: "list_directory", Description: longDesc}},
		ContextWindow: 1024,
	})
	if strings.Contains(out, "Example:") {
		t.Fatalf("compact prompt should not include a worked example:\n%s", out)
	}
	if strings.Contains(out, longDesc) {
		t.Fatalf("compact prompt should trim long descriptions")
	}
}

func TestAssembleFullContextIncludesExample(t *testing.T) {
	a := NewAssembler()
	out := a.Assemble(Config{
		Level:         types.LevelFull,
		Tools:         []ToolInfo{{Name: "write_file", Description: "Write a file."}},
		ContextWindow: 8192,
	})
	if !strings.Contains(out, "Example:") {
		t.Fatalf("full-size prompt should include a worked example:\n%s", out)
	}
}

func TestAssembleNoToolsOmitsToolSections(t *testing.T) {
	a := NewAssembler()
	out := a.Assemble(Config{Level: types.LevelNone})
	if strings.Contains(out, "# Tools") {
		t.Fatalf("expected no tool catalog section when no tools are registered:\n%s", out)
	}
}

func TestAssembleIncludesSkillCatalog(t *testing.T) {
	reg := NewSkillRegistry()
	reg.Register(types.SkillEntry{SkillDefinition: types.SkillDefinition{
		Name: "triage", Description: "Triage an incoming bug report.",
	}})
	a := NewAssembler()
	out := a.Assemble(Config{Level: types.LevelWorkspace, Skills: reg})
	if !strings.Contains(out, "triage") {
		t.Fatalf("expected skill catalog to list registered skill, got:\n%s", out)
	}
}
