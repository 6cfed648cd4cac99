package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/registry"
	"github.com/bloktastic/bloktastic/internal/validator"
)

type buildFlags struct {
	root  string
	watch bool
}

func (a *App) newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain a registry checkout",
	}

	var flags buildFlags
	build := &cobra.Command{
		Use:   "build",
		Short: "Regenerate registry.json from the package manifests",
		Long: "Scans components/*, plugins/* and presets/* for bloktastic.json and writes registry.json with\n" +
			"entries and stats. The file is left untouched when no package changed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRegistryBuild(cmd.Context(), flags)
		},
	}
	build.Flags().StringVar(&flags.root, "root", "", "registry directory (default: --registry-path or ./registry)")
	build.Flags().BoolVar(&flags.watch, "watch", false, "rebuild whenever a package changes")

	var repoPath string
	check := &cobra.Command{
		Use:   "check-versions <base> <head>",
		Short: "Fail when a changed package kept its version",
		Long: "Compares the packages of two registry trees. A package whose files changed must raise the\n" +
			"MAJOR.MINOR.PATCH version in its bloktastic.json. Each argument is a registry directory or a\n" +
			"git revision of the repository at --dir.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheckVersions(cmd.Context(), args[0], args[1], repoPath)
		},
	}
	check.Flags().StringVar(&repoPath, "path", "registry", "registry directory inside the repository, for revisions")

	cmd.AddCommand(build, check)
	return cmd
}

func (a *App) runCheckVersions(ctx context.Context, baseArg, headArg, repoPath string) error {
	base, cleanBase, err := a.registryTree(ctx, baseArg, repoPath)
	if err != nil {
		return err
	}
	defer cleanBase()
	head, cleanHead, err := a.registryTree(ctx, headArg, repoPath)
	if err != nil {
		return err
	}
	defer cleanHead()

	report, err := registry.CheckVersionBumps(os.DirFS(base), os.DirFS(head))
	if err != nil {
		return errs.Wrap(err, errs.KindLoadFailure, "")
	}
	if len(report.Changed) == 0 {
		a.output.Info("No registry changes detected between base and head.")
		return nil
	}
	if len(report.Failures) > 0 {
		for _, f := range report.Failures {
			a.output.Error("%s", f)
		}
		return &ExitError{Code: ExitFailure, Message: "Registry package version checks failed."}
	}
	a.output.Success("Registry package version checks passed (%d changed).", len(report.Changed))
	return nil
}

// registryTree resolves arg to a directory: an existing directory as is,
// anything else as a git revision snapshot of repoPath.
func (a *App) registryTree(ctx context.Context, arg, repoPath string) (string, func(), error) {
	dir := arg
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.projectDir, dir)
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, func() {}, nil
	}
	a.logger.Debug("reading registry revision", slog.String("rev", arg), slog.String("path", repoPath))
	return registry.SnapshotRevision(ctx, a.projectDir, arg, repoPath)
}

func (a *App) registryRoot(flags buildFlags) string {
	switch {
	case flags.root != "":
		return flags.root
	case a.registryPath != "":
		return a.registryPath
	}
	return filepath.Join(a.projectDir, "registry")
}

func (a *App) runRegistryBuild(ctx context.Context, flags buildFlags) error {
	root := a.registryRoot(flags)
	opts := registry.BuildOptions{Logger: a.logger, Check: a.checkRegistry}

	result, err := registry.Build(root, opts)
	if err != nil {
		if errs.KindOf(err) == "" {
			err = errs.Wrap(err, errs.KindLoadFailure, "")
		}
		return err
	}
	a.reportBuild(result)
	if !flags.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a.output.Info("Watching %s for changes (Ctrl+C to stop)...", root)
	return registry.Watch(ctx, root, registry.WatchOptions{
		Build: opts,
		OnBuild: func(r *registry.BuildResult, err error) {
			if err != nil {
				a.output.Error("Rebuild failed: %v", err)
				return
			}
			a.reportBuild(r)
		},
	})
}

// checkRegistry validates a generated document against the registry schema
// before the build writes it.
func (a *App) checkRegistry(data *registry.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	check, err := validator.New(validator.WithWorkDir(a.projectDir)).ValidateRegistry(raw)
	if err != nil {
		return err
	}
	if !check.Valid {
		return errs.New(errs.KindValidationFailure, "generated %s does not match its schema: %s", registry.RegistryFile, strings.Join(check.Errors, "; "))
	}
	return nil
}

// reportBuild prints the outcome of a build.
func (a *App) reportBuild(r *registry.BuildResult) {
	for _, dir := range r.Skipped {
		a.output.Warning("Skipped %s: no readable %s", dir, registry.ManifestFile)
	}

	s := r.Data.Stats
	summary := fmt.Sprintf("%d components, %d plugins, %d presets", s.TotalComponents, s.TotalPlugins, s.TotalPresets)
	if r.Changed {
		a.output.Success("Wrote %s (%s)", r.Path, summary)
	} else {
		a.output.Info("%s is up to date (%s)", r.Path, summary)
	}
}
