package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// WatchOptions configure Watch.
type WatchOptions struct {
	Build    BuildOptions
	Debounce time.Duration
	// OnBuild is called after every rebuild triggered by a change.
	OnBuild func(*BuildResult, error)
}

// Watch rebuilds the registry below root whenever a package file changes.
// It blocks until ctx is cancelled.
func Watch(ctx context.Context, root string, opts WatchOptions) error {
	logger := opts.Build.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	for _, kind := range Kinds {
		kindDir := filepath.Join(root, kind.Dir())
		addWatch(fsw, kindDir, logger)
		entries, _ := os.ReadDir(kindDir)
		for _, e := range entries {
			if e.IsDir() {
				addWatch(fsw, filepath.Join(kindDir, e.Name()), logger)
			}
		}
	}

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignoredEvent(root, event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addWatch(fsw, event.Name, logger)
				}
			}
			logger.Debug("registry change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.Any("error", err))

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			result, err := Build(root, opts.Build)
			if opts.OnBuild != nil {
				opts.OnBuild(result, err)
			}
		}
	}
}

func addWatch(fsw *fsnotify.Watcher, dir string, logger *slog.Logger) {
	if strings.HasPrefix(filepath.Base(dir), ".") {
		return
	}
	if err := fsw.Add(dir); err != nil {
		logger.Debug("not watching directory", slog.String("path", dir), slog.Any("error", err))
	}
}

// ignoredEvent filters the build's own output and editor temp files.
func ignoredEvent(root, name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	return filepath.Dir(name) == filepath.Clean(root) && base == RegistryFile
}
