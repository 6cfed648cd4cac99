package cli

import (
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/detect"
	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/storyblok"
	"github.com/bloktastic/bloktastic/internal/ui"
)

type initFlags struct {
	yes    bool
	space  string
	region string
}

var regionChoices = []ui.Choice{
	{Label: "EU (eu.storyblok.com)", Value: string(storyblok.RegionEU)},
	{Label: "US (us.storyblok.com)", Value: string(storyblok.RegionUS)},
	{Label: "Canada (ca.storyblok.com)", Value: string(storyblok.RegionCA)},
	{Label: "Asia-Pacific (ap.storyblok.com)", Value: string(storyblok.RegionAP)},
}

var frameworkChoices = []ui.Choice{
	{Label: "Vue", Value: "vue"},
	{Label: "Nuxt", Value: "nuxt"},
	{Label: "React", Value: "react"},
	{Label: "Next.js", Value: "nextjs"},
	{Label: "Astro", Value: "astro"},
	{Label: "Svelte", Value: "svelte"},
	{Label: "Agnostic", Value: "agnostic"},
}

var promptOutputChoices = []ui.Choice{
	{Label: "Copy to clipboard", Value: string(config.PromptClipboard)},
	{Label: "Save to file", Value: string(config.PromptFile)},
	{Label: "Print to stdout", Value: string(config.PromptStdout)},
}

func (a *App) newInitCmd() *cobra.Command {
	var flags initFlags
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize Bloktastic in your project",
		Long:  "Creates " + config.ConfigFile + " with the Storyblok space, region and prompt preferences of this project.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(flags)
		},
	}
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip prompts and use defaults")
	cmd.Flags().StringVar(&flags.space, "space", "", "Storyblok space ID")
	cmd.Flags().StringVar(&flags.region, "region", "", "Storyblok region (eu, us, ca, ap)")
	return cmd
}

func (a *App) runInit(flags initFlags) error {
	if flags.region != "" {
		if _, err := storyblok.ParseRegion(flags.region); err != nil {
			return err
		}
	}

	if !flags.yes && !ui.Interactive() {
		return errs.Newh(errs.KindInvalidArgument, "pass --yes --space <id> to initialize without prompts", "no interactive terminal")
	}

	if config.Exists(a.projectDir) && !flags.yes {
		overwrite, err := ui.Confirm(config.ConfigFile + " already exists. Overwrite?")
		if err != nil {
			return err
		}
		if !overwrite {
			a.output.Info("Initialization cancelled.")
			return nil
		}
	}

	var cfg *config.Config
	if flags.yes {
		if err := config.ValidateSpaceID(flags.space); err != nil {
			return errs.Wrap(err, errs.KindInvalidArgument, "with --yes, a numeric --space <id> is required")
		}
		cfg = config.NewConfig(flags.space, flags.region)
	} else {
		answers := ui.InitAnswers{
			SpaceID:      flags.space,
			Region:       flags.region,
			Framework:    a.defaultFramework(),
			PromptOutput: string(config.PromptClipboard),
		}
		if answers.Region == "" {
			answers.Region = config.DefaultRegion
		}
		choices := ui.InitChoices{
			Regions:       regionChoices,
			Frameworks:    frameworkChoices,
			PromptOutputs: promptOutputChoices,
		}
		if err := ui.InitForm(&answers, choices, config.ValidateSpaceID); err != nil {
			return errs.Wrap(err, errs.KindInvalidArgument, "initialization cancelled")
		}

		cfg = config.NewConfig(answers.SpaceID, answers.Region)
		cfg.Preferences.DefaultFramework = answers.Framework
		cfg.Preferences.PromptOutput = config.PromptOutput(answers.PromptOutput)
	}

	if err := config.Save(a.projectDir, cfg); err != nil {
		return err
	}
	a.config = cfg
	a.output.Success("Created %s", config.ConfigFile)

	if os.Getenv(storyblok.TokenEnv) == "" {
		a.output.Println("")
		a.output.Warning("%s not found in environment.", storyblok.TokenEnv)
		a.output.Info("You'll need this to push components to Storyblok.")
		a.output.Dim("  Generate one at: %s", storyblok.TokenURL)
	}

	a.output.Println("\nNext steps:")
	a.output.Dim("  1. Set %s in your environment", storyblok.TokenEnv)
	a.output.Dim("  2. Run `bloktastic add @bloktastic/hero` to install your first component")
	return nil
}

// defaultFramework preselects the framework found in package.json.
func (a *App) defaultFramework() string {
	fw, ok, err := detect.DetectFramework(a.projectDir)
	if err != nil {
		a.logger.Debug("framework detection failed", slog.Any("error", err))
	}
	if ok && slices.ContainsFunc(frameworkChoices, func(c ui.Choice) bool { return c.Value == fw.Name }) {
		a.logger.Debug("framework detected", slog.String("framework", fw.String()))
		return fw.Name
	}
	return config.DefaultFramework
}
