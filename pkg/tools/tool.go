// Package tools implements the Tool interface, the Registry, the Executor
// (the execution pipeline of spec.md §4.1), and the filesystem/bash/git/
// system-info tool suite of §4.4. Grounded on
// pkg/tools/{tool,registry,bash,fileread,filewrite,fileedit,glob,directory}.go.
package tools

import (
	"context"

	"github.com/agentcore/agentcore/pkg/types"
)

// Tool is the interface every registered tool implements. Unlike the
// teacher, there is no structured tool_use wire format above this layer —
// the model's TOOL_CALL text block is parsed by pkg/loop into a name and a
// map[string]any input before Execute is ever called.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	SideEffect() types.SideEffectType
	Execute(ctx context.Context, input map[string]any) (types.ToolOutput, error)
}
