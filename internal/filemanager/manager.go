package filemanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned when a package directory is already present.
var ErrExists = errors.New("directory already exists")

// File is a single file of a package directory.
type File struct {
	Name string
	Data []byte
}

// Manager writes package directories below a base directory.
type Manager struct {
	baseDir string
}

// NewManager creates a new file manager rooted at baseDir.
func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// PackageDir returns the path of a package's directory.
func (m *Manager) PackageDir(name string) string {
	return filepath.Join(m.baseDir, name)
}

// CreatePackage creates a new package directory holding files. It refuses
// to touch an existing directory.
func (m *Manager) CreatePackage(name string, files []File) (string, error) {
	if err := ValidatePathComponent(name, "package name"); err != nil {
		return "", err
	}

	pkgDir := m.PackageDir(name)
	if err := ValidateInsideDir(m.baseDir, pkgDir); err != nil {
		return "", fmt.Errorf("invalid package path: %w", err)
	}
	if Exists(pkgDir) {
		return "", fmt.Errorf("%w: %s", ErrExists, pkgDir)
	}

	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		return "", fmt.Errorf("creating package dir %s: %w", name, err)
	}

	for _, f := range files {
		if err := ValidatePathComponent(f.Name, "filename"); err != nil {
			return "", err
		}
		filePath := filepath.Join(pkgDir, f.Name)
		if err := ValidateInsideDir(pkgDir, filePath); err != nil {
			return "", fmt.Errorf("invalid file path: %w", err)
		}
		if err := WriteFileAtomic(filePath, f.Data, 0644); err != nil {
			return "", fmt.Errorf("writing %s/%s: %w", name, f.Name, err)
		}
	}

	return pkgDir, nil
}
