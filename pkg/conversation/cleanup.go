package conversation

import (
	"os"
	"path/filepath"
	"time"
)

// CleanupConfig configures Session Housekeeping (SPEC_FULL.md §4.12).
type CleanupConfig struct {
	RetentionDays int // sessions older than this are purged; default 30
}

// CleanupStats reports the outcome of one housekeeping pass.
type CleanupStats struct {
	SessionsDeleted int
	BytesFreed      int64
}

// Cleanup walks every (item_id, session_id) directory under the store's
// baseDir and deletes those whose metadata's UpdatedAt predates the
// retention window. Pure filesystem operation, run on agent start; never
// runs mid-turn. Grounded on the teacher's pkg/session/cleanup.go.
func Cleanup(baseDir string, cfg CleanupConfig) (CleanupStats, error) {
	retentionDays := cfg.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var stats CleanupStats

	items, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, err
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		itemDir := filepath.Join(baseDir, item.Name())
		sessions, err := os.ReadDir(itemDir)
		if err != nil {
			continue
		}
		for _, session := range sessions {
			if !session.IsDir() {
				continue
			}
			dir := filepath.Join(itemDir, session.Name())
			lastActive := lastActiveTime(dir, session)
			if lastActive.Before(cutoff) {
				size := dirSize(dir)
				if err := os.RemoveAll(dir); err == nil {
					stats.SessionsDeleted++
					stats.BytesFreed += size
				}
			}
		}
	}

	return stats, nil
}

func lastActiveTime(dir string, entry os.DirEntry) time.Time {
	meta, err := loadMetadata(dir)
	if err == nil {
		if !meta.UpdatedAt.IsZero() {
			return meta.UpdatedAt
		}
		if !meta.CreatedAt.IsZero() {
			return meta.CreatedAt
		}
	}
	if info, err := entry.Info(); err == nil {
		return info.ModTime()
	}
	return time.Now()
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
