// Package audit implements the append-only audit journal: one line per
// event, rotated at a size threshold, written by a bounded background
// queue so no caller ever blocks on file I/O while holding a policy mutex.
// Grounded on pkg/session/writer.go's asyncWriter pattern, with rotation
// guarded by github.com/gofrs/flock (the teacher's own
// pkg/prompt/skill_loader.go uses the same library for concurrent-safe
// file access).
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	maxFileSize    = 2 * 1024 * 1024 // 2 MiB
	keptRotations  = 3
	queueCapacity  = 1024
)

// Level is the severity of an audit line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Record is one audit-journal entry.
type Record struct {
	ID        string
	Timestamp time.Time
	Level     Level
	Component string
	Message   string
}

// Line renders r in the fixed ISO-8601/level/component/message format.
func (r Record) Line() string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
		r.Timestamp.UTC().Format(time.RFC3339Nano), r.Level, r.Component, r.ID, r.Message)
}

// Journal is the append-only, rotating, background-written audit log.
type Journal struct {
	path string

	mu     sync.Mutex
	queue  chan Record
	done   chan struct{}
	closed bool
}

// Open creates (or appends to) the journal file at path and starts its
// background writer goroutine.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	j := &Journal{
		path:  path,
		queue: make(chan Record, queueCapacity),
		done:  make(chan struct{}),
	}
	go j.run()
	return j, nil
}

// Record enqueues an event for the background writer. Record never blocks
// on disk I/O; if the queue is full the call blocks only on channel
// backpressure, never on a mutex held by a policy gate.
func (j *Journal) Record(level Level, component, message string) {
	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
	}
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return
	}
	j.queue <- rec
}

// Close drains the queue and stops the background writer.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	close(j.queue)
	<-j.done
	return nil
}

func (j *Journal) run() {
	defer close(j.done)
	for rec := range j.queue {
		if err := j.appendLine(rec.Line()); err != nil {
			// The journal cannot log its own write failures through itself;
			// surfacing to stderr is the only remaining channel.
			fmt.Fprintf(os.Stderr, "audit: write failed: %v\n", err)
		}
	}
}

func (j *Journal) appendLine(line string) error {
	lock := flock.New(j.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking audit journal: %w", err)
	}
	defer lock.Unlock()

	if err := j.rotateIfNeeded(); err != nil {
		return err
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit journal: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(line)
	return err
}

func (j *Journal) rotateIfNeeded() error {
	info, err := os.Stat(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < maxFileSize {
		return nil
	}

	for i := keptRotations - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", j.path, i)
		dst := fmt.Sprintf("%s.%d", j.path, i+1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}
	return os.Rename(j.path, j.path+".1")
}
