package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/registry"
)

type filterFlags struct {
	kind     string
	category string
	tag      string
}

func (f filterFlags) parseKind() (registry.Kind, error) {
	if f.kind == "" {
		return 0, nil
	}
	return registry.ParseKind(f.kind)
}

func (a *App) newSearchCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search packages in the Bloktastic registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.Context(), args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.kind, "type", "t", "", "filter by type (component, plugin, preset)")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "filter by category")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "filter by tag")
	return cmd
}

func (a *App) runSearch(ctx context.Context, query string, flags filterFlags) error {
	kind, err := flags.parseKind()
	if err != nil {
		return err
	}

	client := a.newRegistryClient()
	var results []registry.Package
	err = a.withSpinner("Searching registry...", func() error {
		var err error
		results, err = client.Search(ctx, query, registry.SearchOptions{Kind: kind, Category: flags.category, Tag: flags.tag})
		return err
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		a.output.Info("No packages found matching %q", query)
		a.output.Dim("\nTry another query or use `bloktastic list` to browse all packages.")
		return nil
	}

	plural := ""
	if len(results) > 1 {
		plural = "s"
	}
	a.output.Println("\nFound %d package%s matching %q:\n", len(results), plural, query)

	for _, pkg := range results {
		a.output.Println("  %s (v%s) · %s · %s%s", a.output.Accent(pkg.Name), pkg.Version, pkg.Kind, categoryLabel(pkg.Entry), statusBadge(pkg.Status))
		a.output.Println("  %s", pkg.Title)
		if len(pkg.Tags) > 0 {
			a.output.Dim("  Tags: %s", strings.Join(pkg.Tags, ", "))
		}
		a.output.Println("")
	}

	a.output.Dim("Run `bloktastic add <name>` to install.")
	return nil
}

func categoryLabel(e registry.Entry) string {
	if c := e.CategoryName(); c != "" {
		return c
	}
	return "uncategorized"
}

func statusBadge(status string) string {
	switch status {
	case registry.StatusDeprecated, registry.StatusUnmaintained:
		return " [" + status + "]"
	}
	return ""
}
