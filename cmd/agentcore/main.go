// Command agentcore runs the Agent Core tool-use loop against a local
// inference backend from the command line.
//
// Usage:
//
//	# llama.cpp-style CLI binary, invoked once per turn
//	agentcore -backend process -command /usr/local/bin/llama-cli -level workspace -prompt "list the files here"
//
//	# OpenAI-compatible local HTTP server (ollama, llama.cpp server mode)
//	agentcore -backend http -base-url http://localhost:11434/v1 -model qwen2.5-coder -level observe -prompt "what's in README.md?"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/agentcore/agentcore/pkg/audit"
	"github.com/agentcore/agentcore/pkg/autonomy"
	"github.com/agentcore/agentcore/pkg/conversation"
	"github.com/agentcore/agentcore/pkg/loop"
	"github.com/agentcore/agentcore/pkg/prompt"
	"github.com/agentcore/agentcore/pkg/provider"
	"github.com/agentcore/agentcore/pkg/sandbox"
	"github.com/agentcore/agentcore/pkg/subagent"
	"github.com/agentcore/agentcore/pkg/tools"
	"github.com/agentcore/agentcore/pkg/types"
)

func main() {
	backend := flag.String("backend", "process", "inference backend: process or http")
	command := flag.String("command", "", "local inference binary (process backend)")
	baseURL := flag.String("base-url", "http://localhost:11434/v1", "OpenAI-compatible base URL (http backend)")
	model := flag.String("model", "", "model name (http backend)")
	contextWindow := flag.Int("context-window", 4096, "model context window, in tokens")
	levelFlag := flag.String("level", "observe", "autonomy level: none, observe, workspace, home, full")
	workspace := flag.String("workspace", "", "workspace root (defaults to the current directory)")
	prompt_ := flag.String("prompt", "", "single prompt to run non-interactively")
	maxToolIterations := flag.Int("max-tool-iterations", loop.DefaultMaxToolIterations, "loop guard: max tool calls per turn")
	stateDir := flag.String("state-dir", "", "directory for conversation history and audit logs (defaults to a temp dir)")
	flag.Parse()

	level, ok := types.ParseAutonomyLevel(*levelFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown level %q (use none, observe, workspace, home, full)\n", *levelFlag)
		os.Exit(1)
	}

	if *prompt_ == "" {
		fmt.Fprintln(os.Stderr, "Error: -prompt is required")
		os.Exit(1)
	}

	cwd := *workspace
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	dataDir := *stateDir
	if dataDir == "" {
		var err error
		dataDir, err = os.MkdirTemp("", "agentcore-")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	infProvider, err := buildProvider(*backend, *command, *baseURL, *model, *contextWindow)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sb := sandbox.Probe(sandbox.Config{
		ReadableRoots: []string{cwd},
		WritableRoots: writableRoots(level, cwd),
		Mode:          sandbox.ModeAdvisory,
	})

	registry := buildRegistry(level, cwd, sb, filepath.Join(dataDir, "subagents"))

	journal, err := audit.Open(filepath.Join(dataDir, "audit.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening audit journal: %v\n", err)
		os.Exit(1)
	}
	defer journal.Close()

	checker := autonomy.NewChecker(autonomy.CheckerConfig{
		Level:    level,
		Commands: autonomy.DefaultCommandPolicy(),
		Prompter: autonomy.NewTTYPrompter(os.Stdin, os.Stdout),
	})

	executor := tools.NewExecutor(registry, checker, journal)
	sessionsDir := filepath.Join(dataDir, "sessions")
	store := conversation.NewStore(sessionsDir)
	compactor := conversation.NewCompactor()

	// Session Housekeeping (spec.md §4.12): purge stale sessions once at
	// startup, never mid-turn.
	if _, err := conversation.Cleanup(sessionsDir, conversation.CleanupConfig{}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session cleanup: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	skills := loadSkills(cwd)
	watcher := prompt.NewSkillWatcher(skills, []string{filepath.Join(cwd, "skills")})
	if err := watcher.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: skill watcher: %v\n", err)
	}
	defer watcher.Stop()

	promptBase := prompt.Config{
		Level:  level,
		Tools:  toPromptToolInfos(registry.ToolInfos()),
		Skills: skills,
		System: systemContext(cwd),
	}

	l := loop.New(loop.Config{
		Provider:          infProvider,
		Assembler:         prompt.NewAssembler(),
		PromptBase:        promptBase,
		Executor:          executor,
		Store:             store,
		Compactor:         compactor,
		MaxToolIterations: *maxToolIterations,
	})

	const itemID, sessionID = "cli", "default"
	result, err := l.RunTurn(ctx, itemID, sessionID, *prompt_)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Text)
	if result.Reason != loop.ExitEndTurn {
		fmt.Fprintf(os.Stderr, "[loop stopped: %s after %d iteration(s)]\n", result.Reason, result.Iterations)
	}
}

// buildProvider constructs the inference Provider named by backend.
// Grounded on the teacher's cmd/example/main.go resolveConfig, narrowed
// from a remote-API provider table to the two local-only transports
// pkg/provider exposes.
func buildProvider(backend, command, baseURL, model string, contextWindow int) (provider.Provider, error) {
	switch backend {
	case "process":
		if command == "" {
			return nil, fmt.Errorf("-command is required for the process backend")
		}
		return provider.NewProcessProvider(provider.ProcessConfig{
			Command:          command,
			ContextWindowTok: contextWindow,
		}), nil
	case "http":
		if model == "" {
			return nil, fmt.Errorf("-model is required for the http backend")
		}
		return provider.NewHTTPProvider(provider.HTTPConfig{
			BaseURL:          baseURL,
			Model:            model,
			ContextWindowTok: contextWindow,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (use process or http)", backend)
	}
}

// writableRoots implements spec.md §4.1's "configures the filesystem
// subsystem's writable roots from the level": nothing is writable below
// Workspace.
func writableRoots(level types.AutonomyLevel, cwd string) []string {
	if level.AtLeast(types.LevelWorkspace) {
		return []string{cwd}
	}
	return nil
}

// buildRegistry implements spec.md §4.1's init(autonomy_config): at None,
// nothing is registered; at Observe, read-only tools plus the
// capability-gated shell and subagent inspection tools; at Workspace and
// above, write tools, git, and subagent control. The Executor's own
// capability check (pkg/tools/executor.go's capabilityFor) is the
// authoritative gate — this tiering only keeps the model's tool catalog
// from advertising tools it cannot currently use.
//
// subagent.IsSubagentProcess structurally enforces spec.md §4.9's max
// depth of 1: a process spawned by spawn_subagent never sees the
// subagent-control tools in its own registry.
func buildRegistry(level types.AutonomyLevel, cwd string, sb *sandbox.Sandbox, subagentOutputDir string) *tools.Registry {
	registry := tools.NewRegistry()
	if level == types.LevelNone {
		return registry
	}

	validator := tools.NewPathValidator(cwd, []string{cwd}, writableRoots(level, cwd))

	registry.Register(&tools.ReadTextFileTool{Validator: validator})
	registry.Register(&tools.ReadBinaryFileTool{Validator: validator})
	registry.Register(&tools.ReadMultipleFilesTool{Validator: validator})
	registry.Register(&tools.ListDirectoryTool{Validator: validator})
	registry.Register(&tools.ListDirectorySizesTool{Validator: validator})
	registry.Register(&tools.DirectoryTreeTool{Validator: validator})
	registry.Register(&tools.GetFileInfoTool{Validator: validator})
	registry.Register(&tools.ListAllowedPathsTool{Validator: validator})
	registry.Register(&tools.SearchFilesTool{Validator: validator})
	registry.Register(&tools.SystemInfoTool{})
	registry.Register(&tools.BashTool{CWD: cwd, Sandbox: sb})

	if !subagent.IsSubagentProcess() {
		mgr := subagent.NewManager(subagentOutputDir)
		registry.Register(&tools.ListSubagentsTool{Manager: mgr})
		registry.Register(&tools.PollSubagentsTool{Manager: mgr})
		registry.Register(&tools.ReadSubagentOutputTool{Manager: mgr})
		if level.AtLeast(types.LevelWorkspace) {
			registry.Register(&tools.SpawnSubagentTool{Manager: mgr})
			registry.Register(&tools.KillSubagentTool{Manager: mgr})
		}
	}

	if level.AtLeast(types.LevelWorkspace) {
		registry.Register(&tools.WriteFileTool{Validator: validator})
		registry.Register(&tools.EditFileTool{Validator: validator})
		registry.Register(&tools.CreateDirectoryTool{Validator: validator})
		registry.Register(&tools.MoveFileTool{Validator: validator})
		registry.Register(&tools.DeleteFileTool{Validator: validator})
		registry.Register(&tools.GitTool{CWD: cwd, Sandbox: sb})
	}

	return registry
}

// toPromptToolInfos converts pkg/tools' ToolInfo into pkg/prompt's
// structurally identical, intentionally decoupled ToolInfo. The two
// packages never import one another; cmd/agentcore is where the wiring
// layer is supposed to live.
func toPromptToolInfos(infos []tools.ToolInfo) []prompt.ToolInfo {
	out := make([]prompt.ToolInfo, len(infos))
	for i, t := range infos {
		out[i] = prompt.ToolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return out
}

// loadSkills builds the initial skill catalog from <cwd>/skills, per
// SPEC_FULL.md §4.11. The returned registry is handed to both the prompt
// assembler and the hot-reload watcher, which mutates it in place as
// files change between turns.
func loadSkills(cwd string) *prompt.SkillRegistry {
	registry := prompt.NewSkillRegistry()
	entries, err := prompt.NewSkillLoader(cwd, "").LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: loading skills: %v\n", err)
		return registry
	}
	for _, entry := range entries {
		registry.Register(entry)
	}
	return registry
}

func systemContext(cwd string) prompt.SystemContext {
	hostname, _ := os.Hostname()
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return prompt.SystemContext{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Kernel:   kernelVersion(),
		Hostname: hostname,
		Workdir:  cwd,
		Shell:    shell,
	}
}

func kernelVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return "unknown"
	}
	fields := strings.Fields(string(data))
	if len(fields) >= 3 {
		return fields[2]
	}
	return "unknown"
}
