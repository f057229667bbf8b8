package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcore/agentcore/pkg/types"
	"gopkg.in/yaml.v3"
)

// skillFrontmatter is the YAML frontmatter block at the top of a skill file.
type skillFrontmatter struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	AllowedTools []string `yaml:"allowed-tools"`
	WhenToUse    string   `yaml:"when_to_use"`
}

// ParseSkillFile reads a skill definition from a .md file on disk.
func ParseSkillFile(path string) (*types.SkillEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skill file %s: %w", path, err)
	}
	return ParseSkillContent(data, path)
}

// ParseSkillContent parses a skill definition from raw file content.
func ParseSkillContent(data []byte, filePath string) (*types.SkillEntry, error) {
	yamlPart, body, err := splitSkillFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", filePath, err)
	}
	if len(yamlPart) == 0 {
		return nil, fmt.Errorf("no frontmatter found in %s", filePath)
	}

	var fm skillFrontmatter
	if err := yaml.Unmarshal(yamlPart, &fm); err != nil {
		return nil, fmt.Errorf("parsing YAML in %s: %w", filePath, err)
	}
	if fm.Name == "" {
		fm.Name = deriveSkillName(filePath)
	}
	if fm.Description == "" {
		return nil, fmt.Errorf("missing required field 'description' in %s", filePath)
	}

	entry := &types.SkillEntry{
		SkillDefinition: types.SkillDefinition{
			Name:         fm.Name,
			Description:  fm.Description,
			AllowedTools: fm.AllowedTools,
			WhenToUse:    fm.WhenToUse,
			Body:         strings.TrimSpace(body),
			SourcePath:   filePath,
		},
	}
	return entry, nil
}

// splitSkillFrontmatter splits "---\nYAML\n---\nbody" content. Content with
// no leading "---" is treated as having no frontmatter (yamlPart is nil).
func splitSkillFrontmatter(data []byte) (yamlPart []byte, body string, err error) {
	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return nil, content, nil
	}

	rest := content[3:]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	endIdx := strings.Index(rest, "\n---")
	if endIdx < 0 {
		return nil, content, nil
	}

	yamlContent := rest[:endIdx]
	remaining := rest[endIdx+4:]
	remaining = strings.TrimPrefix(remaining, "\r\n")
	remaining = strings.TrimPrefix(remaining, "\n")

	return []byte(yamlContent), remaining, nil
}

// deriveSkillName derives a skill name from its containing directory, e.g.
// "skills/triage-bug/SKILL.md" -> "triage-bug".
func deriveSkillName(filePath string) string {
	dir := filepath.Dir(filePath)
	return filepath.Base(dir)
}
