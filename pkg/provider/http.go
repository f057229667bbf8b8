package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/agentcore/agentcore/pkg/types"
)

// HTTPConfig configures a local-HTTP provider talking to an
// OpenAI-compatible chat-completions endpoint exposed by a local inference
// server (e.g. ollama, llama.cpp's server mode). Grounded on
// pkg/llm/client.go's request/response shape, stripped of remote-API
// concerns (API keys, billing headers) since the endpoint is local.
type HTTPConfig struct {
	Name             string
	BaseURL          string
	Model            string
	ContextWindowTok int
	EndOfTurnDefault []string
	Retry            RetryConfig
	HTTPClient       *http.Client
}

// HTTPProvider streams completions from a local OpenAI-compatible server
// over SSE. The default client's transport is explicitly upgraded to
// HTTP/2 via golang.org/x/net/http2 since several local inference servers
// (llama.cpp's server mode included) speak h2 but not ALPN negotiation
// over plain net/http defaults.
type HTTPProvider struct {
	cfg HTTPConfig
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Name == "" {
		cfg.Name = "local-http"
	}
	if cfg.ContextWindowTok == 0 {
		cfg.ContextWindowTok = 4096
	}
	if cfg.HTTPClient == nil {
		transport := &http.Transport{}
		_ = http2.ConfigureTransport(transport)
		cfg.HTTPClient = &http.Client{Timeout: 0, Transport: transport}
	}
	return &HTTPProvider{cfg: cfg}
}

func (p *HTTPProvider) Name() string       { return p.cfg.Name }
func (p *HTTPProvider) ContextWindow() int { return p.cfg.ContextWindowTok }

func (p *HTTPProvider) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(p.cfg.BaseURL, "/")+"/models", nil)
	if err != nil {
		return false
	}
	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *HTTPProvider) Generate(ctx context.Context, req GenerateRequest, onChunk StreamCallback) (string, error) {
	ends := req.EndOfTurnStrings
	if len(ends) == 0 {
		ends = p.cfg.EndOfTurnDefault
	}

	return WithRetry(ctx, p.cfg.Retry, func(ctx context.Context) (string, error) {
		return p.stream(ctx, req, ends, onChunk)
	})
}

func (p *HTTPProvider) stream(ctx context.Context, req GenerateRequest, ends []string, onChunk StreamCallback) (string, error) {
	messages := make([]map[string]string, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body, err := json.Marshal(map[string]any{
		"model":      p.cfg.Model,
		"messages":   messages,
		"stream":     true,
		"max_tokens": req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", types.ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(p.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInternal, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: server returned %d", types.ErrProviderTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: server returned %d", types.ErrProviderUnavailable, resp.StatusCode)
	}

	scanner := newEOSScanner(ends)
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}
		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content == "" {
				continue
			}
			truncated, done := scanner.Feed(c.Delta.Content)
			if onChunk != nil {
				onChunk(c.Delta.Content)
			}
			if done {
				return truncated, nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("%w: reading stream: %v", types.ErrProviderTransient, err)
	}
	return scanner.Text(), nil
}
