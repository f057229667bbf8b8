package prompt

import (
	"os"
	"path/filepath"

	"github.com/agentcore/agentcore/pkg/types"
)

// SkillLoader discovers skill definitions under a workspace and an optional
// user-level skills directory.
type SkillLoader struct {
	workspaceDir string
	userDir      string
}

// NewSkillLoader creates a loader rooted at workspaceDir/skills and, if
// userDir is non-empty, userDir/skills.
func NewSkillLoader(workspaceDir, userDir string) *SkillLoader {
	return &SkillLoader{workspaceDir: workspaceDir, userDir: userDir}
}

// LoadAll discovers and parses every skill file. Project skills (under the
// workspace) override user skills with the same name.
func (l *SkillLoader) LoadAll() (map[string]types.SkillEntry, error) {
	skills := make(map[string]types.SkillEntry)

	if l.userDir != "" {
		entries, err := l.scanDir(filepath.Join(l.userDir, "skills"), types.SkillSourceUser, 10)
		if err != nil {
			return nil, err
		}
		for name, entry := range entries {
			skills[name] = entry
		}
	}

	if l.workspaceDir != "" {
		entries, err := l.scanDir(filepath.Join(l.workspaceDir, "skills"), types.SkillSourceProject, 20)
		if err != nil {
			return nil, err
		}
		for name, entry := range entries {
			skills[name] = entry
		}
	}

	return skills, nil
}

// scanDir reads every *.md file directly inside dir. A missing directory is
// not an error — it just contributes no skills.
func (l *SkillLoader) scanDir(dir string, source types.SkillSource, priority int) (map[string]types.SkillEntry, error) {
	skills := make(map[string]types.SkillEntry)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return skills, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		skillFile := filepath.Join(dir, entry.Name())
		skill, err := ParseSkillFile(skillFile)
		if err != nil {
			continue // malformed skill files are skipped, not fatal
		}
		skill.Source = source
		skill.Priority = priority
		skills[skill.Name] = *skill
	}

	return skills, nil
}
