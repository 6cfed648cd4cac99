package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/installer"
	"github.com/bloktastic/bloktastic/internal/registry"
	"github.com/bloktastic/bloktastic/internal/storyblok"
	"github.com/bloktastic/bloktastic/internal/ui"
	"github.com/bloktastic/bloktastic/internal/validator"
)

// ExitFailure is the exit code of every reported error.
const ExitFailure = 1

// App is the dependency container for all CLI commands.
type App struct {
	rootCmd *cobra.Command
	version string
	commit  string
	date    string
	config  *config.Config
	output  *ui.Output
	logger  *slog.Logger
	stderr  io.Writer

	projectDir   string
	registryURL  string
	registryPath string
	debug        bool
	noColor      bool

	// newPusher builds the Storyblok client when a command pushes schemas.
	newPusher func(region storyblok.Region) (installer.Pusher, error)
	clipboard installer.Clipboard
}

// NewApp creates the root command and registers all subcommands.
func NewApp(version, commit, date string) *App {
	app := &App{
		version:   version,
		commit:    commit,
		date:      date,
		output:    ui.NewOutput(),
		logger:    slog.New(slog.DiscardHandler),
		stderr:    os.Stderr,
		clipboard: installer.SystemClipboard{},
	}
	app.newPusher = func(region storyblok.Region) (installer.Pusher, error) {
		return storyblok.NewClientFromEnv(region, storyblok.WithLogger(app.logger))
	}

	root := &cobra.Command{
		Use:   "bloktastic",
		Short: "Component registry for Storyblok",
		Long:  "Installs, validates and scaffolds Storyblok component packages from the Bloktastic registry.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envURL := os.Getenv("BLOKTASTIC_REGISTRY_URL"); envURL != "" && app.registryURL == "" {
				app.registryURL = envURL
			}
			if envPath := os.Getenv("BLOKTASTIC_REGISTRY_PATH"); envPath != "" && app.registryPath == "" {
				app.registryPath = envPath
			}
			if os.Getenv("BLOKTASTIC_DEBUG") != "" {
				app.debug = true
			}
			if app.noColor || os.Getenv("NO_COLOR") != "" {
				app.output.SetNoColor(true)
			}
			if app.debug {
				app.logger = slog.New(slog.NewTextHandler(app.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			// Commands that need the config call RequireConfig.
			return app.LoadProjectConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.projectDir, "dir", ".", "project directory")
	root.PersistentFlags().StringVar(&app.registryURL, "registry", "", "remote registry base URL (overrides BLOKTASTIC_REGISTRY_URL)")
	root.PersistentFlags().StringVar(&app.registryPath, "registry-path", "", "local registry directory (overrides BLOKTASTIC_REGISTRY_PATH)")
	root.PersistentFlags().BoolVar(&app.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		app.newInitCmd(),
		app.newAddCmd(),
		app.newCreateCmd(),
		app.newValidateCmd(),
		app.newSearchCmd(),
		app.newListCmd(),
		app.newInfoCmd(),
		app.newRegistryCmd(),
		app.newVersionCmd(),
	)

	app.rootCmd = root
	return app
}

// SetOutput redirects command output, e.g. in tests.
func (a *App) SetOutput(stdout, stderr io.Writer) {
	a.output = ui.NewOutputTo(stdout, stderr)
	a.stderr = stderr
	a.rootCmd.SetOut(stdout)
	a.rootCmd.SetErr(stderr)
}

// SetArgs sets the command line arguments, e.g. in tests.
func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// Report prints err with its hint and returns the process exit code.
func (a *App) Report(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ExitError); ok {
		if exitErr.Message != "" {
			a.output.Error("%s", exitErr.Message)
		}
		return exitErr.Code
	}
	a.output.Error("%s", err)
	if hint := errs.HintOf(err); hint != "" {
		a.output.Hint("%s", hint)
	}
	return ExitFailure
}

// LoadProjectConfig loads bloktastic.config.json from the project directory.
// A missing file leaves a.config nil.
func (a *App) LoadProjectConfig() error {
	c, err := config.Load(a.projectDir)
	if err != nil || c == nil {
		return err
	}
	a.config = c
	a.checkConfigSchema()
	return nil
}

// checkConfigSchema warns about config content the schema rejects. The
// command still runs with what could be decoded.
func (a *App) checkConfigSchema() {
	raw, err := os.ReadFile(config.Path(a.projectDir))
	if err != nil {
		return
	}
	result, err := validator.New(validator.WithWorkDir(a.projectDir)).ValidateConfig(raw)
	if err != nil {
		a.logger.Debug("config schema check skipped", slog.Any("error", err))
		return
	}
	for _, e := range result.Errors {
		a.output.Warning("%s: %s", config.ConfigFile, e)
	}
}

// RequireConfig returns an error if no config file was found.
func (a *App) RequireConfig() error {
	if a.config == nil {
		return errs.Newh(errs.KindNotFound, "run `bloktastic init` first", "no %s found", config.ConfigFile)
	}
	return nil
}

// newRegistryClient creates a registry client for the resolved source.
func (a *App) newRegistryClient() *registry.Client {
	source := registry.ResolveSource(registry.SourceOptions{
		RegistryPath: a.registryPath,
		RegistryURL:  a.registryURL,
		WorkDir:      a.projectDir,
	})
	a.logger.Debug("registry source resolved", slog.String("source", source.String()))
	return registry.NewClient(source, registry.WithLogger(a.logger))
}

// withSpinner wraps fn in a spinner unless debug output would garble it.
func (a *App) withSpinner(title string, fn func() error) error {
	if a.debug {
		return fn()
	}
	return ui.WithSpinner(title, fn)
}

func requirePackageName(name string) error {
	if _, _, err := registry.ParseName(name); err != nil {
		return errs.Newh(errs.KindInvalidArgument, "e.g. @bloktastic/hero", "package name must include namespace: %q", name)
	}
	return nil
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			a.output.Info("bloktastic %s (commit: %s, built: %s)", a.version, a.commit, a.date)
		},
	}
}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}
