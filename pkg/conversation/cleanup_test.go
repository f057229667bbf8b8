package conversation

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanup_PurgesOldSessions(t *testing.T) {
	base := t.TempDir()
	s := NewStore(base)
	s.Append("item1", "old-session", RoleUser, "hi")
	s.Append("item1", "fresh-session", RoleUser, "hi")
	s.Close()

	// Backdate the old session's metadata past the retention window.
	oldDir := filepath.Join(base, "item1", "old-session")
	meta, err := loadMetadata(oldDir)
	if err != nil {
		t.Fatalf("loadMetadata: %v", err)
	}
	meta.UpdatedAt = time.Now().AddDate(0, 0, -60)
	if err := saveMetadata(oldDir, meta); err != nil {
		t.Fatalf("saveMetadata: %v", err)
	}

	stats, err := Cleanup(base, CleanupConfig{RetentionDays: 30})
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if stats.SessionsDeleted != 1 {
		t.Fatalf("expected 1 session deleted, got %d", stats.SessionsDeleted)
	}

	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("expected old session directory to be removed")
	}
	if _, err := os.Stat(filepath.Join(base, "item1", "fresh-session")); err != nil {
		t.Error("expected fresh session directory to survive cleanup")
	}
}

func TestCleanup_EmptyBaseDirIsNoop(t *testing.T) {
	stats, err := Cleanup(filepath.Join(t.TempDir(), "does-not-exist"), CleanupConfig{})
	if err != nil {
		t.Fatalf("Cleanup on missing dir should not error: %v", err)
	}
	if stats.SessionsDeleted != 0 {
		t.Errorf("expected no deletions, got %d", stats.SessionsDeleted)
	}
}
