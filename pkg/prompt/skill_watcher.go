package prompt

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SkillWatcher watches skill directories for changes and hot-reloads the
// registry so a running agent picks up edited skill files between turns.
type SkillWatcher struct {
	registry *SkillRegistry
	dirs     []string
	debounce time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewSkillWatcher(registry *SkillRegistry, dirs []string) *SkillWatcher {
	return &SkillWatcher{registry: registry, dirs: dirs, debounce: 500 * time.Millisecond}
}

// Start begins watching. Call Stop (or cancel ctx) to shut it down.
func (w *SkillWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			log.Printf("skill watcher: skipping %s: %v", dir, err)
		}
	}

	go w.run(ctx, watcher)
	return nil
}

func (w *SkillWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *SkillWatcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ev := event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() { w.reload(ev) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("skill watcher error: %v", err)
		}
	}
}

func (w *SkillWatcher) reload(event fsnotify.Event) {
	name := skillNameFromPath(event.Name)

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.registry.Unregister(name)
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		entry, err := ParseSkillFile(event.Name)
		if err != nil {
			log.Printf("skill watcher: error reloading %s: %v", event.Name, err)
			return
		}
		w.registry.Register(*entry)
	}
}

func skillNameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
