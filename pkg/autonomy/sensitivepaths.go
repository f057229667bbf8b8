package autonomy

import "strings"

// sensitivePrefixes can never be written to regardless of autonomy level.
// Grounded on spec.md §3/§4.2's SensitivePathSet; these are absolute-path
// prefix matches, checked after the path has been canonicalized by the
// filesystem tool's path validator.
var sensitivePrefixes = []string{
	"/etc/shadow",
	"/etc/sudoers",
	"/etc/sudoers.d",
	"/etc/passwd",
	"/root/.ssh",
	"/home/*/.ssh",
	"/boot",
	"/sys",
	"/proc/sys",
	"/dev",
}

// SensitivePathSet holds the (possibly extended) list of prefixes that are
// never writable.
type SensitivePathSet struct {
	prefixes []string
}

// NewSensitivePathSet returns the default set, optionally extended with
// site-specific additional prefixes.
func NewSensitivePathSet(extra ...string) *SensitivePathSet {
	all := make([]string, 0, len(sensitivePrefixes)+len(extra))
	all = append(all, sensitivePrefixes...)
	all = append(all, extra...)
	return &SensitivePathSet{prefixes: all}
}

// IsSensitive reports whether path falls under a sensitive prefix. path must
// already be canonical (symlinks resolved, cleaned) for this check to be
// meaningful.
func (s *SensitivePathSet) IsSensitive(path string) bool {
	for _, prefix := range s.prefixes {
		if matchPrefixPattern(prefix, path) {
			return true
		}
	}
	return false
}

// matchPrefixPattern supports a single "*" path-segment wildcard (e.g.
// "/home/*/.ssh") in addition to plain prefix matching.
func matchPrefixPattern(pattern, path string) bool {
	if !strings.Contains(pattern, "*") {
		return path == pattern || strings.HasPrefix(path, pattern+"/")
	}
	segs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")
	if len(pathSegs) < len(segs) {
		return false
	}
	for i, seg := range segs {
		if seg == "*" {
			continue
		}
		if pathSegs[i] != seg {
			return false
		}
	}
	return true
}
