// Package installer installs registry packages and their dependencies into
// a project and its Storyblok space.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
	"github.com/bloktastic/bloktastic/internal/registry"
	"github.com/bloktastic/bloktastic/internal/resolver"
	"github.com/bloktastic/bloktastic/internal/storyblok"
	"github.com/bloktastic/bloktastic/internal/ui"
)

const readmeExcerptLines = 12

// Registry is the part of the registry client the installer reads from.
type Registry interface {
	FindPackage(ctx context.Context, name string) (*registry.Package, error)
	FetchManifest(ctx context.Context, pkgPath string) (*registry.Manifest, error)
	FetchSchema(ctx context.Context, pkgPath, file string) (map[string]any, error)
	FetchText(ctx context.Context, pkgPath, file string) (string, error)
}

// Pusher creates or updates component schemas in a space.
type Pusher interface {
	PushComponent(ctx context.Context, spaceID string, schema map[string]any, opts storyblok.PushOptions) (*storyblok.PushResult, error)
}

// Clipboard receives prompts with the clipboard output.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Recorder persists installed packages.
type Recorder interface {
	Record(pkg config.InstalledPackage) error
}

// ConfigRecorder records into the project config in Dir.
type ConfigRecorder struct {
	Dir string
}

func (r ConfigRecorder) Record(pkg config.InstalledPackage) error {
	return config.AddInstalledPackage(r.Dir, pkg)
}

// Options control a single install run.
type Options struct {
	PromptOnly   bool
	SkipSchema   bool
	Force        bool
	SpaceID      string
	PromptOutput config.PromptOutput
	// WorkDir is where file prompt output goes.
	WorkDir string
}

// PushesSchema reports whether components are pushed to Storyblok.
func (o Options) PushesSchema() bool {
	return !o.PromptOnly && !o.SkipSchema
}

// Result summarizes a finished install.
type Result struct {
	SessionID string
	// Installed lists package names in completion order, dependencies first.
	Installed []string
}

// Installer walks a package and its dependencies.
type Installer struct {
	registry  Registry
	pusher    Pusher
	clipboard Clipboard
	recorder  Recorder
	out       *ui.Output
	logger    *slog.Logger
	progress  func(title string, fn func() error) error
	now       func() time.Time
	opts      Options
}

// Option configures an Installer.
type Option func(*Installer)

// WithPusher sets the schema pusher. It is required when Options push schemas.
func WithPusher(p Pusher) Option {
	return func(in *Installer) { in.pusher = p }
}

func WithClipboard(c Clipboard) Option {
	return func(in *Installer) { in.clipboard = c }
}

func WithRecorder(r Recorder) Option {
	return func(in *Installer) { in.recorder = r }
}

func WithOutput(out *ui.Output) Option {
	return func(in *Installer) { in.out = out }
}

func WithLogger(logger *slog.Logger) Option {
	return func(in *Installer) { in.logger = logger }
}

// WithProgress wraps slow steps, typically with ui.WithSpinner.
func WithProgress(fn func(title string, fn func() error) error) Option {
	return func(in *Installer) { in.progress = fn }
}

func WithClock(now func() time.Time) Option {
	return func(in *Installer) { in.now = now }
}

// New creates an installer reading from reg.
func New(reg Registry, opts Options, options ...Option) *Installer {
	in := &Installer{
		registry:  reg,
		clipboard: SystemClipboard{},
		out:       ui.NewOutput(),
		logger:    slog.New(slog.DiscardHandler),
		progress:  func(_ string, fn func() error) error { return fn() },
		now:       time.Now,
		opts:      opts,
	}
	for _, o := range options {
		o(in)
	}
	if in.recorder == nil {
		in.recorder = ConfigRecorder{Dir: opts.WorkDir}
	}
	return in
}

// Install installs name and everything it depends on. Each package is
// processed at most once per call.
func (in *Installer) Install(ctx context.Context, name string) (*Result, error) {
	if in.opts.PushesSchema() {
		if in.opts.SpaceID == "" {
			return nil, errs.Newh(errs.KindInvalidArgument, "run `bloktastic init` first", "no Storyblok space configured")
		}
		if in.pusher == nil {
			return nil, errs.New(errs.KindRemoteAuthMissing, "no Storyblok client available to push schemas")
		}
	}

	session := resolver.NewSession()
	r := &run{
		Installer: in,
		session:   session,
		logger:    in.logger.With(slog.String("session", session.ID)),
	}
	r.logger.Debug("install started", slog.String("package", name))

	if err := r.install(ctx, name); err != nil {
		return nil, err
	}
	return &Result{SessionID: session.ID, Installed: session.Installed()}, nil
}

// run is the state of one Install call.
type run struct {
	*Installer
	session *resolver.Session
	logger  *slog.Logger
}

func (r *run) install(ctx context.Context, name string) error {
	ok, err := r.session.Enter(name)
	if err != nil || !ok {
		return err
	}

	pkg, manifest, err := r.fetch(ctx, name)
	if err != nil {
		return err
	}

	if deps := manifest.DependencyNames(); len(deps) > 0 {
		r.out.Println("Resolving dependencies:")
		for _, dep := range deps {
			if r.session.Finished(dep) {
				r.out.Success("%s (installed this session)", dep)
				continue
			}
			if r.opts.Force && r.opts.PushesSchema() {
				r.out.Info("%s (will install/update due to --force)", dep)
			} else {
				r.out.Info("%s (will resolve/install)", dep)
			}
			if err := r.install(ctx, dep); err != nil {
				return fmt.Errorf("dependency %s of %s: %w", dep, name, err)
			}
		}
		r.out.Println("")
	}

	if err := manifest.Accept(&visit{run: r, ctx: ctx, pkg: pkg}); err != nil {
		return err
	}
	r.session.Done(name)
	r.logger.Debug("package installed", slog.String("package", name), slog.String("kind", pkg.Kind.String()))
	return nil
}

func (r *run) fetch(ctx context.Context, name string) (*registry.Package, *registry.Manifest, error) {
	var (
		pkg      *registry.Package
		manifest *registry.Manifest
	)
	err := r.progress(fmt.Sprintf("Fetching %s from registry...", name), func() error {
		var err error
		pkg, err = r.registry.FindPackage(ctx, name)
		if err != nil {
			return err
		}
		manifest, err = r.registry.FetchManifest(ctx, pkg.Path)
		if err != nil {
			return fmt.Errorf("loading manifest for %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	r.out.Success("Found %s v%s", name, manifest.Version)
	return pkg, manifest, nil
}

func (r *run) record(m *registry.Manifest) error {
	if r.opts.PromptOnly {
		return nil
	}
	err := r.recorder.Record(config.InstalledPackage{
		Name:        m.Name,
		Version:     m.Version,
		InstalledAt: r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("recording %s: %w", m.Name, err)
	}
	return nil
}

// visit installs one package once its dependencies are in place.
type visit struct {
	*run
	ctx context.Context
	pkg *registry.Package
}

func (v *visit) VisitComponent(m *registry.Manifest) error {
	v.out.Println("Installing %s...", v.out.Accent(m.Name))

	if v.opts.PushesSchema() {
		if err := v.pushSchema(m); err != nil {
			return err
		}
	}

	prompt, err := v.registry.FetchText(v.ctx, v.pkg.Path, m.PromptFile())
	if err != nil {
		v.logger.Debug("prompt unavailable", slog.String("package", m.Name), slog.Any("error", err))
		v.out.Warning("Could not fetch prompt for this package.")
	} else if err := v.emitPrompt(m.Name, prompt); err != nil {
		return err
	}

	return v.record(m)
}

func (v *visit) pushSchema(m *registry.Manifest) error {
	short := registry.ShortName(m.Name)

	schema, err := v.registry.FetchSchema(v.ctx, v.pkg.Path, m.SchemaFile())
	if err != nil {
		return fmt.Errorf("loading schema for %s: %w", m.Name, err)
	}

	var result *storyblok.PushResult
	err = v.progress("Pushing schema to Storyblok...", func() error {
		var err error
		result, err = v.pusher.PushComponent(v.ctx, v.opts.SpaceID, schema, storyblok.PushOptions{Force: v.opts.Force})
		return err
	})
	if err != nil {
		return fmt.Errorf("pushing schema for %s: %w", m.Name, err)
	}

	switch {
	case result.Created:
		v.out.Success("Component %q created in Space %s", short, v.opts.SpaceID)
	case result.Updated:
		v.out.Success("Component %q updated in Space %s", short, v.opts.SpaceID)
		for _, change := range result.Changes {
			v.out.Dim("  %s", change)
		}
	default:
		v.out.Warning("Component %q already exists (use --force to overwrite)", short)
	}
	return nil
}

func (v *visit) emitPrompt(name, prompt string) error {
	if v.opts.PromptOnly || v.opts.PromptOutput == config.PromptStdout {
		v.printPrompt(prompt)
		return nil
	}

	if v.opts.PromptOutput == config.PromptFile {
		dir := filepath.Join(v.opts.WorkDir, config.PromptDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating prompt directory: %w", err)
		}
		path := filepath.Join(dir, registry.ShortName(name)+".prompt.md")
		if err := filemanager.WriteFileAtomic(path, []byte(prompt), 0644); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		rel, err := filepath.Rel(v.opts.WorkDir, path)
		if err != nil {
			rel = path
		}
		v.out.Success("Prompt written to %s", rel)
		return nil
	}

	if err := v.clipboard.WriteAll(prompt); err != nil {
		v.logger.Debug("clipboard write failed", slog.Any("error", err))
		v.out.Warning("Clipboard unavailable; printing prompt to stdout instead.")
		v.printPrompt(prompt)
		return nil
	}
	v.out.Success("Prompt copied to clipboard!")
	v.out.Dim("\nTip: Paste the prompt into Claude, ChatGPT, or Cursor with your project context.")
	return nil
}

func (v *visit) printPrompt(prompt string) {
	rule := strings.Repeat("─", 72)
	v.out.Dim("\n%s", rule)
	fmt.Fprintln(v.out.Stdout(), prompt)
	v.out.Dim("%s\n", rule)
}

func (v *visit) VisitPlugin(m *registry.Manifest) error {
	v.out.Println("Installing plugin listing %s...", v.out.Accent(m.Name))

	readme, err := v.registry.FetchText(v.ctx, v.pkg.Path, m.ReadmeFile())
	if err != nil {
		v.logger.Debug("readme unavailable", slog.String("package", m.Name), slog.Any("error", err))
		v.out.Warning("Could not load plugin README.")
	} else {
		v.out.Success("Plugin listing ready: %s", m.Title)
		if len(m.Links) > 0 {
			v.out.Println("\nLinks:")
			for _, label := range slices.Sorted(maps.Keys(m.Links)) {
				v.out.Println("  - %s: %s", label, m.Links[label])
			}
		}
		lines := strings.Split(readme, "\n")
		v.out.Dim("\nREADME excerpt:")
		v.out.Println("%s", strings.Join(lines[:min(len(lines), readmeExcerptLines)], "\n"))
	}

	return v.record(m)
}

func (v *visit) VisitPreset(m *registry.Manifest) error {
	if len(m.Includes) == 0 {
		v.out.Warning("Preset has no includes. Nothing to install.")
		return nil
	}

	v.out.Println("Installing preset %s (%d packages)...\n", v.out.Accent(m.Name), len(m.Includes))
	for _, member := range m.Includes {
		if err := v.install(v.ctx, member); err != nil {
			return fmt.Errorf("preset member %s of %s: %w", member, m.Name, err)
		}
	}

	return v.record(m)
}
