package conversation

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	writerBufferSize = 256
	flushIdleTimeout = 100 * time.Millisecond
	lockTimeout      = 5 * time.Second
)

// writeOp is a single enqueued append.
type writeOp struct {
	path string
	data []byte
	err  chan error
}

// asyncWriter batches JSONL appends in a background goroutine, serializing
// writes per-file via a cross-process flock so a crashed writer never
// leaves an interleaved line. Grounded verbatim in spirit on the teacher's
// pkg/session/writer.go asyncWriter; this module's Conversation Store is
// the domain-stack table's second home for github.com/gofrs/flock.
type asyncWriter struct {
	ch    chan writeOp
	done  chan struct{}
	mu    sync.Mutex
	files map[string]*os.File
}

func newAsyncWriter() *asyncWriter {
	w := &asyncWriter{
		ch:    make(chan writeOp, writerBufferSize),
		done:  make(chan struct{}),
		files: make(map[string]*os.File),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)

	timer := time.NewTimer(flushIdleTimeout)
	defer timer.Stop()

	var pending []writeOp
	for {
		select {
		case op, ok := <-w.ch:
			if !ok {
				w.flushAll(pending)
				return
			}
			pending = append(pending, op)
		drain:
			for {
				select {
				case op2, ok2 := <-w.ch:
					if !ok2 {
						w.flushAll(pending)
						return
					}
					pending = append(pending, op2)
				default:
					break drain
				}
			}
			w.flushAll(pending)
			pending = pending[:0]
			timer.Reset(flushIdleTimeout)

		case <-timer.C:
			if len(pending) > 0 {
				w.flushAll(pending)
				pending = pending[:0]
			}
			timer.Reset(flushIdleTimeout)
		}
	}
}

func (w *asyncWriter) flushAll(ops []writeOp) {
	for _, op := range ops {
		err := w.writeToFile(op.path, op.data)
		if op.err != nil {
			op.err <- err
		}
	}
}

func (w *asyncWriter) writeToFile(path string, data []byte) error {
	w.mu.Lock()
	f, ok := w.files[path]
	if !ok {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			w.mu.Unlock()
			return err
		}
		w.files[path] = f
	}
	w.mu.Unlock()

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return ErrLockTimeout
	}
	defer fl.Unlock()

	_, err = f.Write(data)
	return err
}

// Write enqueues an append. If errCh is non-nil the result is sent to it.
func (w *asyncWriter) Write(path string, data []byte, errCh chan error) {
	w.ch <- writeOp{path: path, data: data, err: errCh}
}

// Close flushes pending writes and releases open file handles.
func (w *asyncWriter) Close() error {
	close(w.ch)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()

	var lastErr error
	for _, f := range w.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	w.files = nil
	return lastErr
}
