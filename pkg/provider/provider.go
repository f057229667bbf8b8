// Package provider defines the model-agnostic Inference Provider contract
// (spec.md §4.6) and two concrete transports: a local subprocess provider
// and a local-HTTP provider for an OpenAI-compatible inference server.
// Grounded on pkg/llm/{client,stream,retry,errors}.go, reworked per the
// REDESIGN section in SPEC_FULL.md: generate returns raw text, not
// structured tool_use blocks — a small local model is assumed unreliable at
// anything requiring exact JSON, so the wire format above this layer is a
// literal text marker parsed by pkg/loop, not a provider-side feature.
package provider

import "context"

// Message is one turn of conversation history handed to the provider.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// GenerateRequest is the input to a single Generate call.
type GenerateRequest struct {
	Prompt           string
	History          []Message
	EndOfTurnStrings []string // literal strings that terminate generation
	MaxTokens        int
}

// StreamCallback receives each incremental chunk of generated text as it
// streams in. A nil callback means the caller only wants the final text.
type StreamCallback func(chunk string)

// Provider is the model-agnostic inference contract every backend
// implements. Callers may cancel an in-flight Generate via ctx; the
// provider must stop generating promptly on cancellation.
type Provider interface {
	// Name identifies the provider for logging/audit purposes.
	Name() string
	// IsAvailable reports whether the provider is currently usable (e.g.
	// the local model server is reachable, the subprocess binary exists).
	IsAvailable() bool
	// ContextWindow reports the model's context window in tokens.
	ContextWindow() int
	// Generate produces a completion for req, streaming chunks to onChunk
	// as they arrive, and returns the final accumulated text.
	Generate(ctx context.Context, req GenerateRequest, onChunk StreamCallback) (string, error)
}
