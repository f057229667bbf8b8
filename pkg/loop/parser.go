package loop

import "strings"

// ToolCallMarker opens a tool call block; EndToolCallMarker closes it.
// spec.md §4.8 is bit-literal about both: the parser looks for these exact
// strings, not a structured wire format.
const (
	ToolCallMarker    = "TOOL_CALL:"
	EndToolCallMarker = "END_TOOL_CALL"
)

// ParsedToolCall is one TOOL_CALL block extracted from a model reply.
type ParsedToolCall struct {
	Name  string
	Input map[string]any

	// raw is the unparsed tool name + input lines, used only to detect a
	// byte-identical repeat of the previous call (spec.md §4.8 step 5).
	raw string
}

// ParseToolCall scans text for a TOOL_CALL marker. If absent, ok is false
// and the whole text is the model's final answer. If present, the line
// immediately after the marker is the tool name and subsequent lines up to
// END_TOOL_CALL are "key: value" input pairs. A missing END_TOOL_CALL is
// tolerated: input runs to the end of the text.
func ParseToolCall(text string) (call ParsedToolCall, ok bool) {
	idx := strings.Index(text, ToolCallMarker)
	if idx < 0 {
		return ParsedToolCall{}, false
	}
	rest := strings.TrimPrefix(text[idx+len(ToolCallMarker):], "\n")
	rest = strings.TrimPrefix(rest, "\r\n")
	lines := strings.Split(rest, "\n")
	if len(lines) == 0 {
		return ParsedToolCall{}, false
	}

	name := strings.TrimSpace(lines[0])

	var inputLines []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == EndToolCallMarker {
			break
		}
		inputLines = append(inputLines, line)
	}

	return ParsedToolCall{
		Name:  name,
		Input: parseToolInput(inputLines),
		raw:   name + "\n" + strings.Join(inputLines, "\n"),
	}, true
}

// parseToolInput turns "key: value" lines into a map. Blank lines and lines
// without a colon are skipped. A repeated key keeps the last value.
func parseToolInput(lines []string) map[string]any {
	input := make(map[string]any)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		sep := strings.Index(trimmed, ":")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:sep])
		value := strings.TrimSpace(trimmed[sep+1:])
		if key == "" {
			continue
		}
		input[key] = value
	}
	return input
}
