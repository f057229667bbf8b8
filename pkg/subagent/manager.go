package subagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxConcurrent is spec.md §9's "subagent pool ≤ 8" resource cap.
const MaxConcurrent = 8

var (
	ErrPoolFull    = errors.New("subagent: pool is at max concurrency")
	ErrUnknownID   = errors.New("subagent: unknown id")
	ErrNotRunning  = errors.New("subagent: not running")
	ErrNotTerminal = errors.New("subagent: not in a terminal state")
)

// Status is a read-only snapshot of a subagent record, returned by List
// and Poll without exposing the underlying *exec.Cmd.
type Status struct {
	ID         string
	Name       string
	Command    []string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string
}

// record is a running or finished subagent, tracked by Manager.
type record struct {
	mu            sync.Mutex
	id            string
	name          string
	command       []string
	state         State
	startedAt     time.Time
	finishedAt    time.Time
	err           error
	killRequested bool

	outputPath string
	outFile    *os.File
	cmd        *exec.Cmd
	waitCh     chan error // sent to, then closed, by the waiter goroutine
}

func (r *record) status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	errMsg := ""
	if r.err != nil {
		errMsg = r.err.Error()
	}
	return Status{
		ID: r.id, Name: r.name, Command: r.command, State: r.state,
		StartedAt: r.startedAt, FinishedAt: r.finishedAt, Err: errMsg,
	}
}

// Manager tracks and controls a bounded pool of background subagent
// processes. Grounded on the teacher's TaskManager (an ID-keyed map of
// BackgroundTask behind a RWMutex), widened with an explicit concurrency
// cap and a terminal-state ReadOutput/Free pair the teacher has no
// equivalent of.
type Manager struct {
	mu        sync.Mutex
	records   map[string]*record
	outputDir string
}

// NewManager creates a Manager whose per-subagent stdout/stderr files live
// under outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{records: make(map[string]*record), outputDir: outputDir}
}

func (m *Manager) activeCount() int {
	n := 0
	for _, r := range m.records {
		s := r.status().State
		if s == StatePending || s == StateRunning {
			n++
		}
	}
	return n
}

// Spawn fork+execs command under name, redirecting its combined
// stdout/stderr to a per-subagent file under outputDir. Returns the new
// record's ID immediately; the process runs in the background.
func (m *Manager) Spawn(ctx context.Context, name string, command []string) (string, error) {
	if len(command) == 0 {
		return "", fmt.Errorf("subagent: empty command")
	}

	m.mu.Lock()
	if m.activeCount() >= MaxConcurrent {
		m.mu.Unlock()
		return "", ErrPoolFull
	}
	m.mu.Unlock()

	id := uuid.NewString()
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("subagent: create output dir: %w", err)
	}
	outputPath := filepath.Join(m.outputDir, id+".log")
	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("subagent: create output file: %w", err)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = outFile
	cmd.Stderr = outFile
	cmd.Env = append(os.Environ(), DepthEnvVar+"=1")

	r := &record{
		id: id, name: name, command: command, state: StatePending,
		startedAt: time.Now(), outputPath: outputPath, outFile: outFile, cmd: cmd,
		waitCh: make(chan error, 1),
	}

	m.mu.Lock()
	m.records[id] = r
	m.mu.Unlock()

	if err := cmd.Start(); err != nil {
		r.mu.Lock()
		r.state = StateFailed
		r.err = err
		r.finishedAt = time.Now()
		r.mu.Unlock()
		outFile.Close()
		close(r.waitCh)
		return id, nil // the failure is recorded on the record, not returned here
	}

	r.mu.Lock()
	r.state = StateRunning
	r.mu.Unlock()

	go func() {
		waitErr := cmd.Wait()
		outFile.Close()
		r.waitCh <- waitErr
		close(r.waitCh)
	}()

	return id, nil
}

// List returns a snapshot of every known record without reconciling any
// in-flight process state.
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.status())
	}
	return out
}

// Poll performs spec.md §4.9's "non-blocking status update via waitpid-
// like non-blocking wait on all children": for every record still Running,
// it does a non-blocking read of that record's waiter channel and, if the
// child has exited, reconciles the terminal state. There is no portable
// non-blocking os/exec wait, so the child's exit is delivered by a
// per-record background goroutine (started in Spawn) over a channel; Poll
// never blocks on a child itself, only on the already-held Manager mutex.
func (m *Manager) Poll() []Status {
	m.mu.Lock()
	records := make([]*record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	m.mu.Unlock()

	for _, r := range records {
		r.mu.Lock()
		running := r.state == StateRunning
		r.mu.Unlock()
		if !running {
			continue
		}
		select {
		case waitErr, ok := <-r.waitCh:
			if !ok {
				continue
			}
			r.mu.Lock()
			r.finishedAt = time.Now()
			switch {
			case r.killRequested:
				r.state = StateKilled
			case waitErr != nil:
				r.state = StateFailed
				r.err = waitErr
			default:
				r.state = StateDone
			}
			r.mu.Unlock()
		default:
			// still running
		}
	}
	return m.List()
}

// Kill sends the subagent's process a kill signal. The record transitions
// to Killed the next time Poll reconciles it.
func (m *Manager) Kill(id string) error {
	m.mu.Lock()
	r, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownID
	}

	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.killRequested = true
	cmd := r.cmd
	r.mu.Unlock()

	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// KillAll kills every currently running subagent, ignoring ones that have
// already finished.
func (m *Manager) KillAll() {
	for _, s := range m.List() {
		if s.State == StateRunning {
			_ = m.Kill(s.ID)
		}
	}
}

// ReadOutput returns the full contents of a subagent's output file. Only
// meaningful once the record has reached a terminal state; callers should
// Poll first.
func (m *Manager) ReadOutput(id string) (string, error) {
	m.mu.Lock()
	r, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return "", ErrUnknownID
	}

	r.mu.Lock()
	terminal := r.state.Terminal()
	path := r.outputPath
	r.mu.Unlock()
	if !terminal {
		return "", ErrNotTerminal
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("subagent: read output: %w", err)
	}
	return string(data), nil
}

// Free discards a terminal record and deletes its output file. Unread
// output is lost, per spec.md §4.9.
func (m *Manager) Free(id string) error {
	m.mu.Lock()
	r, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownID
	}
	r.mu.Lock()
	terminal := r.state.Terminal()
	path := r.outputPath
	r.mu.Unlock()
	if !terminal {
		m.mu.Unlock()
		return ErrNotTerminal
	}
	delete(m.records, id)
	m.mu.Unlock()

	if path != "" {
		_ = os.Remove(path)
	}
	return nil
}
