package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/installer"
	"github.com/bloktastic/bloktastic/internal/storyblok"
)

type addFlags struct {
	promptOnly bool
	skipSchema bool
	force      bool
}

func (a *App) newAddCmd() *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "add <package>",
		Short: "Add a package to your Storyblok space",
		Long: "Installs a package and its dependencies: component schemas are pushed to the configured space\n" +
			"and their prompts are emitted, plugins show their listing, presets install every included package.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(cmd.Context(), args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.promptOnly, "prompt-only", false, "only show the prompt, do not push the schema")
	cmd.Flags().BoolVar(&flags.skipSchema, "skip-schema", false, "skip pushing the schema to Storyblok")
	cmd.Flags().BoolVar(&flags.force, "force", false, "overwrite existing components in Storyblok")
	return cmd
}

func (a *App) runAdd(ctx context.Context, name string, flags addFlags) error {
	if err := requirePackageName(name); err != nil {
		return err
	}

	promptOutput := config.PromptClipboard
	if a.config != nil && a.config.Preferences.PromptOutput != "" {
		promptOutput = a.config.Preferences.PromptOutput
	}

	opts := installer.Options{
		PromptOnly:   flags.promptOnly,
		SkipSchema:   flags.skipSchema,
		Force:        flags.force,
		SpaceID:      a.config.SpaceID(),
		PromptOutput: promptOutput,
		WorkDir:      a.projectDir,
	}

	options := []installer.Option{
		installer.WithOutput(a.output),
		installer.WithLogger(a.logger),
		installer.WithProgress(a.withSpinner),
		installer.WithClipboard(a.clipboard),
		installer.WithRecorder(installer.ConfigRecorder{Dir: a.projectDir}),
	}

	if opts.PushesSchema() {
		if opts.SpaceID == "" {
			return errs.Newh(errs.KindInvalidArgument, "run `bloktastic init` first", "no Storyblok space configured")
		}
		if err := a.config.Validate(); err != nil {
			return errs.Wrap(err, errs.KindInvalidArgument, "fix "+config.ConfigFile+" or run `bloktastic init` again")
		}
		region, err := storyblok.ParseRegion(a.config.Region())
		if err != nil {
			return err
		}
		pusher, err := a.newPusher(region)
		if err != nil {
			return err
		}
		options = append(options, installer.WithPusher(pusher))
	}

	a.output.Println("\nInstalling %s...\n", a.output.Accent(name))

	result, err := installer.New(a.newRegistryClient(), opts, options...).Install(ctx, name)
	if err != nil {
		return err
	}

	a.logger.Debug("install finished", slog.String("session", result.SessionID), slog.Any("installed", result.Installed))
	a.output.Println("")
	a.output.Success("Installation complete!")
	return nil
}
