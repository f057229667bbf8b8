package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/agentcore/agentcore/pkg/types"
)

// ProcessConfig configures a local subprocess inference backend — e.g. a
// `llama.cpp`-style CLI binary invoked once per turn with the prompt on
// stdin and generated tokens streamed on stdout.
type ProcessConfig struct {
	Name             string
	Command          string
	Args             []string
	ContextWindowTok int
	EndOfTurnDefault []string
	Retry            RetryConfig
}

// ProcessProvider runs a local binary per Generate call, streaming its
// stdout as the model's output. Grounded on pkg/tools/bash.go's
// exec.CommandContext foreground-execution pattern, adapted to stream
// stdout line-by-line instead of buffering CombinedOutput.
type ProcessProvider struct {
	cfg ProcessConfig
}

func NewProcessProvider(cfg ProcessConfig) *ProcessProvider {
	if cfg.Name == "" {
		cfg.Name = "local-process"
	}
	if cfg.ContextWindowTok == 0 {
		cfg.ContextWindowTok = 4096
	}
	return &ProcessProvider{cfg: cfg}
}

func (p *ProcessProvider) Name() string        { return p.cfg.Name }
func (p *ProcessProvider) ContextWindow() int  { return p.cfg.ContextWindowTok }

// IsAvailable reports whether the configured binary can be found on PATH.
func (p *ProcessProvider) IsAvailable() bool {
	_, err := exec.LookPath(p.cfg.Command)
	return err == nil
}

func (p *ProcessProvider) Generate(ctx context.Context, req GenerateRequest, onChunk StreamCallback) (string, error) {
	if !p.IsAvailable() {
		return "", fmt.Errorf("%w: %s not found on PATH", types.ErrProviderUnavailable, p.cfg.Command)
	}

	ends := req.EndOfTurnStrings
	if len(ends) == 0 {
		ends = p.cfg.EndOfTurnDefault
	}

	return WithRetry(ctx, p.cfg.Retry, func(ctx context.Context) (string, error) {
		return p.runOnce(ctx, req, ends, onChunk)
	})
}

func (p *ProcessProvider) runOnce(ctx context.Context, req GenerateRequest, ends []string, onChunk StreamCallback) (string, error) {
	cmd := exec.CommandContext(ctx, p.cfg.Command, p.cfg.Args...)
	cmd.Stdin = strings.NewReader(buildPrompt(req))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrProviderTransient, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: starting %s: %v", types.ErrProviderTransient, p.cfg.Command, err)
	}

	scanner := newEOSScanner(ends)
	reader := bufio.NewReader(stdout)
	buf := make([]byte, 256)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			truncated, done := scanner.Feed(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
			if done {
				_ = cmd.Process.Kill()
				cmd.Wait()
				return truncated, nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			cmd.Wait()
			return "", fmt.Errorf("%w: reading output: %v", types.ErrProviderTransient, readErr)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s exited: %v", types.ErrProviderTransient, p.cfg.Command, err)
	}
	return scanner.Text(), nil
}

func buildPrompt(req GenerateRequest) string {
	var b strings.Builder
	for _, m := range req.History {
		fmt.Fprintf(&b, "[%s]: %s\n", m.Role, m.Content)
	}
	b.WriteString(req.Prompt)
	return b.String()
}
