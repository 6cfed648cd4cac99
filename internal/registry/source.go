package registry

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bloktastic/bloktastic/internal/filemanager"
)

// DefaultRegistryURL is the published registry used when no local registry is found.
const DefaultRegistryURL = "https://raw.githubusercontent.com/bartundmett/bloktastic/main/registry"

// Source is where registry documents are read from: a local directory
// containing registry.json, or a remote base URL.
type Source struct {
	Local bool
	Root  string
}

// LocalSource reads from a registry directory on disk.
func LocalSource(root string) Source {
	return Source{Local: true, Root: root}
}

// RemoteSource reads over HTTP from baseURL.
func RemoteSource(baseURL string) Source {
	return Source{Root: strings.TrimRight(baseURL, "/")}
}

// Location returns the file path or URL of rel within the source.
func (s Source) Location(rel string) string {
	if s.Local {
		return filepath.Join(s.Root, filepath.FromSlash(rel))
	}
	return s.Root + "/" + path.Clean(strings.TrimLeft(rel, "/"))
}

func (s Source) String() string {
	if s.Local {
		return "local registry at " + s.Root
	}
	return "remote registry at " + s.Root
}

// SourceOptions are the inputs of source resolution.
type SourceOptions struct {
	// RegistryPath is an explicit local registry directory.
	RegistryPath string
	// RegistryURL replaces DefaultRegistryURL for the remote fallback.
	RegistryURL string
	// WorkDir is where the upward search for registry/registry.json starts.
	WorkDir string
}

// ResolveSource picks the registry source. An explicit RegistryPath wins when
// it holds registry.json, then the nearest registry/registry.json above
// WorkDir, then the remote URL.
func ResolveSource(opts SourceOptions) Source {
	if opts.RegistryPath != "" {
		if abs, err := filepath.Abs(opts.RegistryPath); err == nil {
			if filemanager.Exists(filepath.Join(abs, RegistryFile)) {
				return LocalSource(abs)
			}
		}
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	if found, ok := filemanager.FindUpwards(workDir, filepath.Join("registry", RegistryFile)); ok {
		return LocalSource(filepath.Dir(found))
	}

	baseURL := opts.RegistryURL
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	return RemoteSource(baseURL)
}
