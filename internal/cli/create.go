package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/registry"
	"github.com/bloktastic/bloktastic/internal/scaffold"
	"github.com/bloktastic/bloktastic/internal/ui"
)

type createFlags struct {
	namespace    string
	output       string
	yes          bool
	title        string
	description  string
	category     string
	tags         string
	authorName   string
	authorGitHub string
}

var typeChoices = []ui.Choice{
	{Label: "Component", Value: registry.KindComponent.String()},
	{Label: "Plugin", Value: registry.KindPlugin.String()},
	{Label: "Preset", Value: registry.KindPreset.String()},
}

func (a *App) newCreateCmd() *cobra.Command {
	var flags createFlags
	cmd := &cobra.Command{
		Use:   "create [component|plugin|preset] [name]",
		Short: "Scaffold a new registry package",
		Long:  "Creates a package directory with bloktastic.json, README.md and, for components, schema.json and prompt.md.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCreate(args, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.namespace, "namespace", "n", "", "package namespace (default \"bloktastic\")")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "base directory (default registry/<type>s)")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip prompts and use defaults")
	cmd.Flags().StringVar(&flags.title, "title", "", "display title")
	cmd.Flags().StringVar(&flags.description, "description", "", "package description")
	cmd.Flags().StringVar(&flags.category, "category", "", "package category")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&flags.authorName, "author-name", "", "author name")
	cmd.Flags().StringVar(&flags.authorGitHub, "author-github", "", "author GitHub username")
	return cmd
}

func (a *App) runCreate(args []string, flags createFlags) error {
	var typeArg, name string
	if len(args) > 0 {
		typeArg = args[0]
	}
	if len(args) > 1 {
		name = args[1]
	}

	if !flags.yes && !ui.Interactive() {
		return errs.Newh(errs.KindInvalidArgument, "pass --yes to create with defaults", "no interactive terminal")
	}

	if typeArg == "" {
		if flags.yes {
			return errs.New(errs.KindInvalidArgument, "with --yes, the package type and name are required")
		}
		typeArg = registry.KindComponent.String()
		if err := ui.SelectType(&typeArg, typeChoices); err != nil {
			return errs.Wrap(err, errs.KindInvalidArgument, "creation cancelled")
		}
	}
	kind, err := registry.ParseKind(typeArg)
	if err != nil {
		return err
	}

	opts := scaffold.Options{
		Kind:         kind,
		Name:         name,
		Namespace:    flags.namespace,
		Title:        flags.title,
		Description:  flags.description,
		Category:     flags.category,
		Tags:         flags.tags,
		AuthorName:   flags.authorName,
		AuthorGitHub: flags.authorGitHub,
		Date:         time.Now(),
	}

	if flags.yes {
		if err := scaffold.ValidateName(name); err != nil {
			return err
		}
		opts.ApplyDefaults()
	} else if err := a.askCreate(&opts); err != nil {
		return err
	}

	baseDir := flags.output
	if baseDir == "" {
		baseDir = scaffold.DefaultBaseDir(a.projectDir, kind)
	}

	dir, err := scaffold.Create(baseDir, opts)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(a.projectDir, dir)
	if err != nil {
		rel = dir
	}
	a.output.Success("Created package scaffold: %s", rel)

	a.output.Println("\nNext steps:")
	if kind == registry.KindComponent {
		a.output.Println("  1. Edit %s", filepath.Join(rel, registry.DefaultSchemaFile))
		a.output.Println("  2. Edit %s", filepath.Join(rel, registry.DefaultPromptFile))
	} else {
		a.output.Println("  1. Edit %s", filepath.Join(rel, registry.ManifestFile))
		a.output.Println("  2. Edit %s", filepath.Join(rel, registry.DefaultReadmeFile))
	}
	a.output.Println("  3. Run bloktastic validate %s", rel)
	a.output.Println("  4. Rebuild the index with bloktastic registry build")
	return nil
}

// askCreate fills opts from the interactive form, prefilled with the flag
// values and defaults.
func (a *App) askCreate(opts *scaffold.Options) error {
	defaults := *opts
	if defaults.Name == "" {
		// ApplyDefaults derives the title and tags from the name.
		defaults.Name = "my-" + opts.Kind.String()
	}
	defaults.ApplyDefaults()

	answers := ui.CreateAnswers{
		Type:        opts.Kind.String(),
		Name:        defaults.Name,
		Namespace:   defaults.Namespace,
		Title:       opts.Title,
		Description: opts.Description,
		AuthorName:  defaults.AuthorName,
		GitHub:      opts.AuthorGitHub,
		Category:    defaults.Category,
		Tags:        opts.Tags,
	}

	var categories []ui.Choice
	for _, c := range scaffold.Categories(opts.Kind) {
		categories = append(categories, ui.Choice{Label: c, Value: c})
	}

	err := ui.CreateForm(&answers, categories, ui.CreateValidators{
		Name:        scaffold.ValidateName,
		Namespace:   scaffold.ValidateNamespace,
		Description: scaffold.ValidateDescription,
		GitHub:      scaffold.ValidateGitHub,
	})
	if err != nil {
		return errs.Wrap(err, errs.KindInvalidArgument, "creation cancelled")
	}

	opts.Name = answers.Name
	opts.Namespace = answers.Namespace
	opts.Title = answers.Title
	opts.Description = answers.Description
	opts.AuthorName = answers.AuthorName
	opts.AuthorGitHub = answers.GitHub
	opts.Category = answers.Category
	opts.Tags = answers.Tags
	opts.ApplyDefaults()
	return nil
}
