package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/agentcore/agentcore/pkg/types"
)

// SystemInfoTool reports OS/kernel/host facts via golang.org/x/sys/unix,
// the read-only counterpart to the Kernel Sandbox's use of the same
// dependency for probing (pkg/sandbox/probe.go). Grounded on spec.md §6's
// "environment facts" reference and the teacher's transitive x/sys
// dependency, previously unused for anything but terminal introspection.
type SystemInfoTool struct{}

func (s *SystemInfoTool) Name() string { return "get_system_info" }

func (s *SystemInfoTool) Description() string {
	return "Reports OS, architecture, kernel version, and hostname facts about the host."
}

func (s *SystemInfoTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (s *SystemInfoTool) SideEffect() types.SideEffectType { return types.SideEffectReadOnly }

func (s *SystemInfoTool) Execute(_ context.Context, _ map[string]any) (types.ToolOutput, error) {
	hostname, _ := os.Hostname()
	kernel := "unknown"

	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		kernel = fmt.Sprintf("%s %s", nullTerminatedString(uname.Sysname[:]), nullTerminatedString(uname.Release[:]))
	}

	content := fmt.Sprintf(
		"os: %s\narch: %s\nkernel: %s\nhostname: %s\ncpus: %d",
		runtime.GOOS, runtime.GOARCH, kernel, hostname, runtime.NumCPU(),
	)
	return types.ToolOutput{Content: content}, nil
}

func nullTerminatedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
