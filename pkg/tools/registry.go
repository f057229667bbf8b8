package tools

import "sort"

// Registry holds the tool catalog and resolves tools by name.
type Registry struct {
	tools    map[string]Tool
	disabled map[string]bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDisabled marks tool names as disabled at construction time.
func WithDisabled(names ...string) RegistryOption {
	return func(r *Registry) {
		for _, n := range names {
			r.disabled[n] = true
		}
	}
}

// NewRegistry creates a new, empty tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tools: make(map[string]Tool), disabled: make(map[string]bool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry, keyed by its Name().
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name, ignoring whether it is disabled — the
// Executor is responsible for checking IsDisabled before dispatching.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// IsDisabled reports whether name has been administratively disabled.
func (r *Registry) IsDisabled(name string) bool {
	return r.disabled[name]
}

// Names returns every enabled tool name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		if !r.disabled[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ToolInfos returns the (name, description, schema) triples used by the
// Prompt Assembler to render the tool catalog.
func (r *Registry) ToolInfos() []ToolInfo {
	names := r.Names()
	infos := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		infos = append(infos, ToolInfo{Name: t.Name(), Description: t.Description(), InputSchema: t.InputSchema()})
	}
	return infos
}

// ToolInfo is the minimal shape pkg/prompt needs from a registered tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
}
