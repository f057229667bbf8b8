package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const metadataFile = "metadata.json"

// SessionMetadata holds identity and cost/usage bookkeeping for one
// (item_id, session_id) pair. The token/turn counters are the
// SUPPLEMENTED "cost/usage tracking per turn" feature, grounded on the
// teacher's LoopState.TotalCostUSD/addUsage bookkeeping — kept as plain
// counters since there is no metered billing to track for a local model.
type SessionMetadata struct {
	ItemID        string    `json:"item_id"`
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	MessageCount  int       `json:"message_count"`
	TurnCount     int       `json:"turn_count"`
	TokensIn      int       `json:"tokens_in"`
	TokensOut     int       `json:"tokens_out"`
}

// AddUsage accumulates one turn's token counts, mirroring the teacher's
// LoopState.addUsage.
func (m *SessionMetadata) AddUsage(tokensIn, tokensOut int) {
	m.TokensIn += tokensIn
	m.TokensOut += tokensOut
	m.TurnCount++
}

func loadMetadata(dir string) (SessionMetadata, error) {
	var meta SessionMetadata
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func saveMetadata(dir string, meta SessionMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644)
}
