package filemanager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathComponent rejects path components that could escape the intended directory.
func ValidatePathComponent(name, label string) error {
	if name == "" {
		return fmt.Errorf("empty %s", label)
	}
	cleaned := filepath.Clean(name)
	if cleaned != name || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid %s: %q", label, name)
	}
	return nil
}

// ValidateInsideDir checks that resolved is base or a child of base after cleaning.
func ValidateInsideDir(base, resolved string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(absResolved, absBase+string(filepath.Separator)) && absResolved != absBase {
		return fmt.Errorf("path %q escapes base directory %q", resolved, base)
	}
	return nil
}

// SafeJoin joins a slash-separated relative path onto base and refuses
// results outside base.
func SafeJoin(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative", rel)
	}
	joined := filepath.Join(base, filepath.FromSlash(rel))
	if err := ValidateInsideDir(base, joined); err != nil {
		return "", err
	}
	return joined, nil
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindUpwards looks for rel in startDir and each of its parents and returns
// the first existing candidate.
func FindUpwards(startDir, rel string) (string, bool) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(current, rel)
		if Exists(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
