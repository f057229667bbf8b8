package subagent

import "os"

// DepthEnvVar is set on every spawned subagent's environment so that, if
// the spawned command happens to be this same binary, its own tool
// registry can refuse to register the subagent-spawning tools. This is
// spec.md §4.9's "max depth 1 (a subagent is forbidden from spawning
// another)" enforced structurally: a subagent process never has the
// spawn_subagent tool available to call in the first place.
const DepthEnvVar = "AGENTCORE_SUBAGENT_DEPTH"

// IsSubagentProcess reports whether the current process was itself
// launched as a subagent. cmd/agentcore checks this before registering
// the subagent-control tools.
func IsSubagentProcess() bool {
	return os.Getenv(DepthEnvVar) != ""
}
