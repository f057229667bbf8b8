package conversation

import "testing"

func TestHistory_EstimatedTokensSums(t *testing.T) {
	h := History{Messages: []Message{{TokenCount: 10}, {TokenCount: 5}}}
	if got := h.EstimatedTokens(); got != 15 {
		t.Errorf("EstimatedTokens() = %d, want 15", got)
	}
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := History{Messages: []Message{{ID: "a"}}}
	clone := h.Clone()
	clone.Messages[0].ID = "b"
	if h.Messages[0].ID != "a" {
		t.Error("mutating the clone should not affect the original")
	}
}
