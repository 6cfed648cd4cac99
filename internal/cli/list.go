package cli

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/registry"
)

type listFlags struct {
	filterFlags
	installed bool
}

var kindTitles = map[registry.Kind]string{
	registry.KindComponent: "Components",
	registry.KindPlugin:    "Plugins",
	registry.KindPreset:    "Presets",
}

func (a *App) newListCmd() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available registry packages",
		Long:  "Shows registry packages grouped by type and category. Packages recorded in " + config.ConfigFile + " are marked with a checkmark.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVarP(&flags.kind, "type", "t", "", "filter by type (component, plugin, preset)")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "filter by category")
	cmd.Flags().BoolVar(&flags.installed, "installed", false, "show only packages installed in this project")
	return cmd
}

func (a *App) runList(ctx context.Context, flags listFlags) error {
	kind, err := flags.parseKind()
	if err != nil {
		return err
	}

	client := a.newRegistryClient()
	var all []registry.Package
	err = a.withSpinner("Loading packages...", func() error {
		var err error
		all, err = client.AllPackages(ctx, kind)
		return err
	})
	if err != nil {
		return err
	}

	installed := make(map[string]bool)
	if a.config != nil {
		for _, p := range a.config.InstalledPackages {
			installed[p.Name] = true
		}
	}

	filtered := slices.DeleteFunc(all, func(p registry.Package) bool {
		if flags.category != "" && p.CategoryName() != flags.category {
			return true
		}
		return flags.installed && !installed[p.Name]
	})

	if len(filtered) == 0 {
		a.output.Warning("No packages match the selected filters.")
		return nil
	}

	for _, k := range registry.Kinds {
		var group []registry.Package
		for _, p := range filtered {
			if p.Kind == k {
				group = append(group, p)
			}
		}
		a.printKindGroup(kindTitles[k], group, installed)
	}

	a.output.Dim("Run `bloktastic info <name>` for detailed package metadata.")
	return nil
}

func (a *App) printKindGroup(title string, pkgs []registry.Package, installed map[string]bool) {
	if len(pkgs) == 0 {
		return
	}
	a.output.Println("\n%s (%d)\n", a.output.Accent(title), len(pkgs))

	byCategory := make(map[string][]registry.Package)
	for _, p := range pkgs {
		c := categoryLabel(p.Entry)
		byCategory[c] = append(byCategory[c], p)
	}

	for _, category := range slices.Sorted(maps.Keys(byCategory)) {
		a.output.Dim("  %s", category)
		entries := byCategory[category]
		slices.SortFunc(entries, func(x, y registry.Package) int {
			return cmp.Compare(x.Name, y.Name)
		})
		for _, p := range entries {
			mark := ""
			if installed[p.Name] {
				mark = " ✓"
			}
			a.output.Println("    %-32s %-8s %s%s%s", p.Name, "v"+p.Version, p.Title, mark, statusBadge(p.Status))
		}
		a.output.Println("")
	}
}
