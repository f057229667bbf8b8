package conversation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	messagesFile = "messages.jsonl"
	maxLineSize  = 10 * 1024 * 1024
)

// Store persists conversation histories as one JSONL file per (item_id,
// session_id) pair, under baseDir/<item_id>/<session_id>/. Grounded on the
// teacher's pkg/session.Store, re-keyed from a bare session id to spec.md
// §3's (item_id, session_id) pair.
type Store struct {
	baseDir string
	writer  *asyncWriter
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, writer: newAsyncWriter()}
}

func (s *Store) sessionDir(itemID, sessionID string) string {
	return filepath.Join(s.baseDir, itemID, sessionID)
}

func (s *Store) messagesPath(itemID, sessionID string) string {
	return filepath.Join(s.sessionDir(itemID, sessionID), messagesFile)
}

// Create initializes a new, empty session.
func (s *Store) Create(itemID, sessionID string) error {
	dir := s.sessionDir(itemID, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	now := time.Now()
	return saveMetadata(dir, SessionMetadata{ItemID: itemID, SessionID: sessionID, CreatedAt: now, UpdatedAt: now})
}

// Append adds a message to the session's history, creating the session
// first if it does not yet exist. Returns the message with its ID and
// timestamp populated.
func (s *Store) Append(itemID, sessionID string, role Role, content string) (Message, error) {
	dir := s.sessionDir(itemID, sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := s.Create(itemID, sessionID); err != nil {
			return Message{}, err
		}
	}

	msg := Message{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		TokenCount: EstimateMessage(content),
		CreatedAt:  time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	data = append(data, '\n')

	errCh := make(chan error, 1)
	s.writer.Write(s.messagesPath(itemID, sessionID), data, errCh)
	if err := <-errCh; err != nil {
		return Message{}, err
	}

	s.touchMetadata(itemID, sessionID, func(m *SessionMetadata) { m.MessageCount++ })
	return msg, nil
}

// Load returns the full ordered message sequence for a session.
func (s *Store) Load(itemID, sessionID string) (History, error) {
	dir := s.sessionDir(itemID, sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return History{}, ErrSessionNotFound
	}
	messages, err := loadMessages(s.messagesPath(itemID, sessionID))
	if err != nil {
		return History{}, fmt.Errorf("load messages: %w", err)
	}
	return History{ItemID: itemID, SessionID: sessionID, Messages: messages}, nil
}

// Replace atomically swaps a session's full message sequence, used by
// compaction to replace the compacted prefix with its summary message.
// The rewrite goes through a temp-file-plus-rename so a crash mid-write
// never leaves a truncated history.
func (s *Store) Replace(itemID, sessionID string, messages []Message) error {
	dir := s.sessionDir(itemID, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := s.messagesPath(itemID, sessionID)

	tmp, err := os.CreateTemp(dir, ".messages-*.tmp")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	s.touchMetadata(itemID, sessionID, func(m *SessionMetadata) { m.MessageCount = len(messages) })
	return nil
}

// Delete removes a session entirely.
func (s *Store) Delete(itemID, sessionID string) error {
	dir := s.sessionDir(itemID, sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrSessionNotFound
	}
	return os.RemoveAll(dir)
}

// List returns metadata for every session under an item, most recently
// updated first.
func (s *Store) List(itemID string) ([]SessionMetadata, error) {
	root := filepath.Join(s.baseDir, itemID)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sessions []SessionMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := loadMetadata(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, meta)
	}
	return sessions, nil
}

// RecordUsage accumulates a turn's token counts into session metadata, the
// SUPPLEMENTED cost/usage tracking feature.
func (s *Store) RecordUsage(itemID, sessionID string, tokensIn, tokensOut int) error {
	return s.touchMetadata(itemID, sessionID, func(m *SessionMetadata) { m.AddUsage(tokensIn, tokensOut) })
}

func (s *Store) touchMetadata(itemID, sessionID string, fn func(*SessionMetadata)) error {
	dir := s.sessionDir(itemID, sessionID)
	meta, err := loadMetadata(dir)
	if err != nil {
		meta = SessionMetadata{ItemID: itemID, SessionID: sessionID, CreatedAt: time.Now()}
	}
	fn(&meta)
	meta.UpdatedAt = time.Now()
	return saveMetadata(dir, meta)
}

// Close flushes the async writer.
func (s *Store) Close() error {
	return s.writer.Close()
}

func loadMessages(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			continue // skip corrupt lines
		}
		messages = append(messages, m)
	}
	if err := scanner.Err(); err != nil {
		return messages, err
	}
	return messages, nil
}
