package types

// SkillSource identifies where a skill definition was loaded from. Project
// skills take priority over user skills.
type SkillSource int

const (
	SkillSourceUser SkillSource = iota
	SkillSourceProject
)

func (s SkillSource) String() string {
	if s == SkillSourceProject {
		return "project"
	}
	return "user"
}

// SkillDefinition is an immutable snapshot of one `skills/*.md` file: prompt
// content the model may choose to follow, never itself subject to the
// five-stage execution pipeline.
type SkillDefinition struct {
	Name         string
	Description  string
	AllowedTools []string
	WhenToUse    string
	Body         string
	SourcePath   string
}

// SkillEntry pairs a definition with load metadata used for override priority.
type SkillEntry struct {
	SkillDefinition
	Source   SkillSource
	Priority int
}
