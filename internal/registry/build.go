package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
)

// Values written into every generated registry.json.
const (
	RegistrySchemaURL  = "https://bloktastic.dev/schema/registry.schema.json"
	RegistryName       = "bloktastic"
	RegistryVersion    = "1.0.0"
	RegistryHomepage   = "https://bloktastic.dev"
	RegistryRepository = "https://github.com/bloktastic/bloktastic"
)

var (
	ComponentCategories = []string{"sections", "content", "navigation", "forms", "media", "layout", "commerce"}
	PluginCategories    = []string{"field-plugins", "tool-plugins", "sidebar-plugins"}
)

// BuildOptions configure a registry build.
type BuildOptions struct {
	Now    func() time.Time
	Logger *slog.Logger
	// Check, when set, runs on the generated document before anything is
	// written. An error aborts the build and leaves registry.json alone.
	Check func(*Data) error
}

// DuplicateNameError reports two package directories declaring one name.
type DuplicateNameError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate package name %s in %s and %s", e.Name, e.First, e.Second)
}

func (e *DuplicateNameError) Kind() errs.Kind {
	return errs.KindValidationFailure
}

// BuildResult describes one registry build.
type BuildResult struct {
	Path    string
	Data    *Data
	Changed bool
	// Skipped lists package directories without a readable manifest.
	Skipped []string
}

// Build scans the package directories below root and regenerates
// root/registry.json. When the package content is identical to the existing
// file the file is left alone and its lastUpdated is kept.
func Build(root string, opts BuildOptions) (*BuildResult, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("registry root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("registry root %s is not a directory", root)
	}

	result := &BuildResult{Path: filepath.Join(root, RegistryFile)}
	fsys := os.DirFS(root)

	var packages Packages
	seen := make(map[string]string)
	for _, kind := range Kinds {
		entries, skipped, err := scanKind(fsys, kind, seen, opts.Logger)
		if err != nil {
			return nil, err
		}
		result.Skipped = append(result.Skipped, skipped...)
		switch kind {
		case KindComponent:
			packages.Components = entries
		case KindPlugin:
			packages.Plugins = entries
		case KindPreset:
			packages.Presets = entries
		}
	}

	data := &Data{
		Schema:     RegistrySchemaURL,
		Name:       RegistryName,
		Version:    RegistryVersion,
		Homepage:   RegistryHomepage,
		Repository: RegistryRepository,
		Packages:   packages,
		Categories: &Categories{
			Components: ComponentCategories,
			Plugins:    PluginCategories,
		},
		Stats: &Stats{
			TotalComponents: len(packages.Components),
			TotalPlugins:    len(packages.Plugins),
			TotalPresets:    len(packages.Presets),
			LastUpdated:     opts.Now().UTC().Format(time.RFC3339),
		},
	}
	result.Data = data

	if opts.Check != nil {
		if err := opts.Check(data); err != nil {
			return nil, err
		}
	}

	digest, err := contentDigest(data)
	if err != nil {
		return nil, err
	}

	if previous, ok := readPrevious(result.Path); ok {
		prevDigest, err := contentDigest(previous)
		if err == nil && prevDigest == digest {
			if previous.Stats != nil {
				data.Stats.LastUpdated = previous.Stats.LastUpdated
			}
			opts.Logger.Debug("registry unchanged", slog.String("digest", digest))
			return result, nil
		}
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding registry: %w", err)
	}
	out = append(out, '\n')
	if err := filemanager.WriteFileAtomic(result.Path, out, 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", result.Path, err)
	}

	result.Changed = true
	opts.Logger.Debug("registry written", slog.String("path", result.Path), slog.String("digest", digest))
	return result, nil
}

// scanKind reads the manifests of one kind. seen maps every name taken so
// far, across kinds, to its directory.
func scanKind(fsys fs.FS, kind Kind, seen map[string]string, logger *slog.Logger) ([]Entry, []string, error) {
	dirs, err := packageDirs(fsys, kind)
	if err != nil {
		return nil, nil, err
	}

	entries := []Entry{}
	var skipped []string
	for _, dir := range dirs {
		raw, err := fs.ReadFile(fsys, path.Join(dir, ManifestFile))
		if err != nil {
			logger.Debug("skipping package dir", slog.String("dir", dir), slog.Any("error", err))
			skipped = append(skipped, dir)
			continue
		}
		m, err := ParseManifest(raw)
		if err != nil {
			logger.Debug("skipping package dir", slog.String("dir", dir), slog.Any("error", err))
			skipped = append(skipped, dir)
			continue
		}

		if first, ok := seen[m.Name]; ok {
			return nil, nil, &DuplicateNameError{Name: m.Name, First: first, Second: dir}
		}
		seen[m.Name] = dir

		entries = append(entries, entryFromManifest(m, dir))
	}
	return entries, skipped, nil
}

// packageDirs lists the visible directories below kind.Dir(), sorted.
func packageDirs(fsys fs.FS, kind Kind) ([]string, error) {
	matches, err := doublestar.Glob(fsys, kind.Dir()+"/*")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", kind.Dir(), err)
	}
	slices.Sort(matches)

	var dirs []string
	for _, dir := range matches {
		info, err := fs.Stat(fsys, dir)
		if err != nil || !info.IsDir() || strings.HasPrefix(path.Base(dir), ".") {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func entryFromManifest(m *Manifest, dir string) Entry {
	e := Entry{
		Name:    m.Name,
		Path:    dir,
		Version: m.Version,
		Title:   m.Title,
		Tags:    m.Tags,
		Status:  m.StatusOrDefault(),
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if m.Category != "" {
		category := m.Category
		e.Category = &category
	}
	return e
}

func readPrevious(file string) (*Data, bool) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}
	return &data, true
}

// contentDigest hashes the canonical form of data with lastUpdated blanked.
func contentDigest(data *Data) (string, error) {
	clone := *data
	if clone.Stats != nil {
		stats := *clone.Stats
		stats.LastUpdated = ""
		clone.Stats = &stats
	}
	raw, err := json.Marshal(clone)
	if err != nil {
		return "", err
	}
	digest, err := filemanager.HashJSON(raw)
	if err != nil {
		return "", fmt.Errorf("hashing registry content: %w", err)
	}
	return digest, nil
}
