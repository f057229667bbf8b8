package conversation

import "errors"

var (
	// ErrSessionNotFound is returned when a (item_id, session_id) pair has
	// no backing directory in the store.
	ErrSessionNotFound = errors.New("conversation: session not found")
	// ErrLockTimeout is returned when the cross-process append lock could
	// not be acquired in time.
	ErrLockTimeout = errors.New("conversation: timed out acquiring write lock")
	// ErrCheckpointNotFound is returned by RestoreCheckpoint for an unknown
	// checkpoint id.
	ErrCheckpointNotFound = errors.New("conversation: checkpoint not found")
)
