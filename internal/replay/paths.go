package replay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathSecurityError reports an alternate store path that escapes the
// verifier's permitted base directory. It is raised before any file
// access and is fatal to the command.
type PathSecurityError struct {
	Base string
	Path string
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("path %q escapes permitted directory %q", e.Path, e.Base)
}

// ResolveWithin resolves path against base and rejects it unless the
// resolved location stays inside base. Symlinks in the existing portion
// of the path are followed before the containment check, so a link
// pointing outside the base is rejected too. No file I/O happens on the
// target before resolution succeeds.
func ResolveWithin(base, path string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w", base, err)
	}
	if resolved, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = resolved
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(absBase, path)
	}
	abs = filepath.Clean(abs)
	if resolved, err := evalExisting(abs); err == nil {
		abs = resolved
	}

	rel, err := filepath.Rel(absBase, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathSecurityError{Base: absBase, Path: path}
	}
	return abs, nil
}

// evalExisting resolves symlinks for the longest existing ancestor of
// path, then rejoins the missing suffix.
func evalExisting(path string) (string, error) {
	suffix := ""
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		suffix = filepath.Join(filepath.Base(current), suffix)
		current = parent
	}
}
