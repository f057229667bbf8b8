package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agentcore/agentcore/pkg/types"
)

// SkillRegistry holds the currently loaded skill catalog. Safe for
// concurrent use; the watcher swaps entries in as files change.
type SkillRegistry struct {
	mu     sync.RWMutex
	skills map[string]types.SkillEntry
}

func NewSkillRegistry() *SkillRegistry {
	return &SkillRegistry{skills: make(map[string]types.SkillEntry)}
}

func (r *SkillRegistry) Register(entry types.SkillEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[entry.Name] = entry
}

func (r *SkillRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.skills, name)
}

func (r *SkillRegistry) Get(name string) (types.SkillEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.skills[name]
	return e, ok
}

func (r *SkillRegistry) List() []types.SkillEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]types.SkillEntry, 0, len(r.skills))
	for _, e := range r.skills {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func (r *SkillRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatSkillsList renders the catalog for injection into the system prompt.
func (r *SkillRegistry) FormatSkillsList() string {
	entries := r.List()
	if len(entries) == 0 {
		return ""
	}
	var lines []string
	for _, e := range entries {
		line := fmt.Sprintf("- %s: %s", e.Name, e.Description)
		if e.WhenToUse != "" {
			line += fmt.Sprintf(" (%s)", e.WhenToUse)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
