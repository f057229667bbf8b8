package conversation

import (
	"fmt"
	"strings"
)

// CompactionThreshold is spec.md §4.7's trigger fraction: compaction runs
// when estimated_tokens(system_prompt)+Σestimated_tokens(history) exceeds
// this fraction of the context window.
const CompactionThreshold = 0.75

// Compactor implements spec.md §4.7's deterministic, non-LLM compaction.
// Grounded on the teacher's pkg/context/compactor.go+split.go split-point
// and threshold machinery, kept in spirit; per SPEC_FULL.md's binding
// REDESIGN, generateSummary is a deterministic formatter rather than an
// LLM call back into the provider — "a small local model is assumed too
// unreliable" for that (spec.md §1 Non-goals).
type Compactor struct{}

// NewCompactor returns a Compactor. There is no configuration: the
// threshold and preserve strategy are fixed by spec.md, unlike the
// teacher's tunable ThresholdPct/PreserveRatio fields.
func NewCompactor() *Compactor { return &Compactor{} }

// ShouldCompact reports whether history plus the system prompt exceeds
// spec.md's 0.75 * context_window trigger.
func (c *Compactor) ShouldCompact(systemPromptTokens, contextWindow int, history History) bool {
	total := systemPromptTokens + history.EstimatedTokens()
	return float64(total) > CompactionThreshold*float64(contextWindow)
}

// Compact returns a new message slice with the oldest messages (up to, but
// not crossing, checkpointBoundary — the index of the first message kept
// by any existing checkpoint) replaced by one synthetic summary message,
// chosen so the remaining suffix plus the summary fits under the
// threshold. If nothing can be safely compacted, history.Messages is
// returned unchanged.
func (c *Compactor) Compact(systemPromptTokens, contextWindow int, history History, checkpointBoundary int) []Message {
	messages := history.Messages
	if len(messages) <= 1 {
		return messages
	}

	budget := int(CompactionThreshold*float64(contextWindow)) - systemPromptTokens

	splitIdx := calculateSplitPoint(messages, budget)
	if splitIdx < checkpointBoundary {
		splitIdx = checkpointBoundary
	}
	if splitIdx <= 0 || splitIdx >= len(messages) {
		return messages
	}

	compactZone := messages[:splitIdx]
	preserveZone := messages[splitIdx:]

	summary := Message{
		ID:        summaryMessageID(compactZone),
		ItemID:    history.ItemID,
		SessionID: history.SessionID,
		Role:      RoleSystem,
		Content:   summarize(compactZone),
	}
	summary.TokenCount = EstimateMessage(summary.Content)
	summary.CreatedAt = compactZone[len(compactZone)-1].CreatedAt

	out := make([]Message, 0, len(preserveZone)+1)
	out = append(out, summary)
	out = append(out, preserveZone...)
	return out
}

// calculateSplitPoint walks backward from the end of messages,
// accumulating estimated tokens until the preserve budget is exhausted,
// and returns the index where the preserve zone begins. Grounded on the
// teacher's pkg/context/split.go calculateSplitPoint, simplified since
// this module has no tool_use/tool_result pairing to protect (the
// framed-tool-result messages here are plain role=user text, per §4.8).
func calculateSplitPoint(messages []Message, preserveBudget int) int {
	if len(messages) == 0 {
		return 0
	}
	tokens := 0
	for i := len(messages) - 1; i >= 0; i-- {
		tokens += messages[i].TokenCount
		if tokens > preserveBudget {
			return i + 1
		}
	}
	return 0
}

// summarize renders spec.md §4.7's fixed-format summary: a list of
// message roles with truncated content snippets.
func summarize(messages []Message) string {
	const snippetLen = 80
	var b strings.Builder
	fmt.Fprintf(&b, "[summary of %d earlier turns: ", len(messages))
	for i, m := range messages {
		if i > 0 {
			b.WriteString("; ")
		}
		snippet := m.Content
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen] + "..."
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, snippet)
	}
	b.WriteString("]")
	return b.String()
}

func summaryMessageID(compactZone []Message) string {
	if len(compactZone) == 0 {
		return ""
	}
	return "summary-" + compactZone[0].ID
}
