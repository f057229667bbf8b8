package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentcore/agentcore/pkg/autonomy"
)

// maxReadBytes and maxWriteBytes are the default size caps of spec.md
// §4.4. Callers may configure tighter caps; these are the safe maxima
// tools clamp to when a narrower override is not supplied.
const (
	maxReadBytes  = 1 << 20     // 1 MiB
	maxWriteBytes = 5 << 20     // 5 MiB
	maxSearchDepth = 10
	maxSearchResults = 500
)

// PathValidator canonicalizes and validates a path before any filesystem
// tool touches disk. Grounded on pkg/permission/rules.go's glob-based
// allow/deny matching, adapted here from a permission-mode check into the
// allowed-root/denied-glob/sensitive-path scheme of spec.md §4.4.
type PathValidator struct {
	WorkspaceRoot string
	ReadRoots     []string
	WriteRoots    []string
	DeniedGlobs   []string
	Sensitive     *autonomy.SensitivePathSet
}

// NewPathValidator builds a validator rooted at workspaceRoot, readable
// everywhere under readRoots and writable only under writeRoots. A nil
// Sensitive set falls back to the default autonomy.NewSensitivePathSet().
func NewPathValidator(workspaceRoot string, readRoots, writeRoots []string) *PathValidator {
	return &PathValidator{
		WorkspaceRoot: workspaceRoot,
		ReadRoots:     readRoots,
		WriteRoots:    writeRoots,
		Sensitive:     autonomy.NewSensitivePathSet(),
	}
}

// Resolve canonicalizes path: rejects embedded NULs, resolves it against the
// workspace root if relative, and resolves symlinks via filepath.EvalSymlinks
// when the target exists (a not-yet-created write target is resolved by its
// parent directory instead).
func (v *PathValidator) Resolve(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains a null byte")
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(v.WorkspaceRoot, abs)
	}
	abs = filepath.Clean(abs)

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Target does not exist yet (e.g. a write_file destination). Resolve the
	// parent instead and re-attach the leaf so root/glob checks still apply.
	parent := filepath.Dir(abs)
	if resolvedParent, err := filepath.EvalSymlinks(parent); err == nil {
		return filepath.Join(resolvedParent, filepath.Base(abs)), nil
	}

	return abs, nil
}

// CheckRead validates path is readable: canonicalizes it, confirms it falls
// under a configured read root, and rejects denied globs.
func (v *PathValidator) CheckRead(path string) (string, error) {
	canon, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if !withinAny(canon, v.ReadRoots) {
		return "", fmt.Errorf("path %s is outside the allowed read roots", canon)
	}
	if v.matchesDenied(canon) {
		return "", fmt.Errorf("path %s matches a denied pattern", canon)
	}
	return canon, nil
}

// CheckWrite validates path is writable: everything CheckRead checks, plus
// confirming the path falls under a configured write root and is not a
// sensitive path (sensitive paths are never writable regardless of level).
func (v *PathValidator) CheckWrite(path string) (string, error) {
	canon, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if !withinAny(canon, v.WriteRoots) {
		return "", fmt.Errorf("path %s is outside the allowed write roots", canon)
	}
	if v.matchesDenied(canon) {
		return "", fmt.Errorf("path %s matches a denied pattern", canon)
	}
	if v.Sensitive != nil && v.Sensitive.IsSensitive(canon) {
		return "", fmt.Errorf("path %s is a sensitive path and is never writable", canon)
	}
	return canon, nil
}

func (v *PathValidator) matchesDenied(path string) bool {
	for _, g := range v.DeniedGlobs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

func withinAny(path string, roots []string) bool {
	if len(roots) == 0 {
		return false
	}
	for _, root := range roots {
		root = filepath.Clean(root)
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
