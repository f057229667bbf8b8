package sandbox

import "strings"

// WithinRoots reports whether path lies under one of roots. Used by the
// filesystem-restriction trait: callers resolve the path to its canonical
// form first (symlinks followed, cleaned) and then ask whether it is still
// inside an allowed root.
func WithinRoots(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}

// ReadableRoots returns the sandbox's configured readable roots.
func (s *Sandbox) ReadableRoots() []string { return s.cfg.ReadableRoots }

// WritableRoots returns the sandbox's configured writable roots.
func (s *Sandbox) WritableRoots() []string { return s.cfg.WritableRoots }
