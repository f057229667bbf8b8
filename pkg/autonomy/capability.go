// Package autonomy implements the capability-gate, command-policy gate, and
// sensitive-path gate of the execution pipeline: everything that decides
// whether a tool call is allowed before a human or the kernel sandbox ever
// get involved. Grounded on the teacher's pkg/permission package, adapted
// from a risk-tier/mode model to spec.md's ordered AutonomyLevel and
// read/write/shell/git capability columns.
package autonomy

import "github.com/agentcore/agentcore/pkg/types"

// Capabilities is the set of broad permissions a level grants.
type Capabilities struct {
	Read      bool
	Write     bool
	Shell     bool
	Git       bool
	WriteRoot string // "" (none), "workspace", "home", or "" meaning unrestricted at Full
}

// Matrix returns the fixed capability set for level, per spec.md §3's
// AutonomyLevel table.
func Matrix(level types.AutonomyLevel) Capabilities {
	switch level {
	case types.LevelNone:
		return Capabilities{}
	case types.LevelObserve:
		// Shell is nominally granted at Observe, but restricted to the
		// command-policy engine's allowlist-only mode (CheckCommand):
		// spec.md §3 lists Observe's Shell column as "allowlist only",
		// not forbidden outright.
		return Capabilities{Read: true, Shell: true}
	case types.LevelWorkspace:
		return Capabilities{Read: true, Write: true, Shell: true, Git: true, WriteRoot: "workspace"}
	case types.LevelHome:
		return Capabilities{Read: true, Write: true, Shell: true, Git: true, WriteRoot: "home"}
	case types.LevelFull:
		return Capabilities{Read: true, Write: true, Shell: true, Git: true, WriteRoot: ""}
	default:
		return Capabilities{}
	}
}

// ToolCapability is the capability column a given tool's side effect draws
// from. Read-only tools are gated by Read; mutating filesystem tools by
// Write; shell tools by Shell; the git tool additionally by Git.
type ToolCapability int

const (
	CapRead ToolCapability = iota
	CapWrite
	CapShell
	CapGit
)

// Allows reports whether c grants the given capability.
func (c Capabilities) Allows(cap ToolCapability) bool {
	switch cap {
	case CapRead:
		return c.Read
	case CapWrite:
		return c.Write
	case CapShell:
		return c.Shell
	case CapGit:
		return c.Git
	default:
		return false
	}
}
