package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/registry"
)

func (a *App) newInfoCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show detailed package information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInfo(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func (a *App) runInfo(ctx context.Context, name, format string) error {
	if err := requirePackageName(name); err != nil {
		return err
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return errs.New(errs.KindInvalidArgument, "unknown format %q (want text, json or yaml)", format)
	}

	client := a.newRegistryClient()
	var manifest *registry.Manifest
	err := a.withSpinner("Fetching package info...", func() error {
		pkg, err := client.FindPackage(ctx, name)
		if err != nil {
			return err
		}
		manifest, err = client.FetchManifest(ctx, pkg.Path)
		return err
	})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding manifest: %w", err)
		}
		fmt.Fprintln(a.output.Stdout(), string(data))
		return nil
	case "yaml":
		enc := yaml.NewEncoder(a.output.Stdout())
		enc.SetIndent(2)
		if err := enc.Encode(manifest); err != nil {
			return fmt.Errorf("encoding manifest: %w", err)
		}
		return enc.Close()
	}

	a.printManifest(manifest)
	return nil
}

func (a *App) printManifest(m *registry.Manifest) {
	a.output.Println("\n%s v%s", a.output.Accent(m.Name), m.Version)
	if installed, ok := a.config.Installed(m.Name); ok {
		a.output.Success("Installed (%s)", formatDate(installed.InstalledAt))
	}
	a.output.Println("\n  %s\n", m.Description)

	category := m.Category
	if category == "" {
		category = "uncategorized"
	}
	tags := "none"
	if len(m.Tags) > 0 {
		tags = strings.Join(m.Tags, ", ")
	}
	frameworks, storyblokRange := "agnostic", "any"
	if m.Compatibility != nil {
		if len(m.Compatibility.Frameworks) > 0 {
			frameworks = strings.Join(m.Compatibility.Frameworks, ", ")
		}
		if m.Compatibility.Storyblok != "" {
			storyblokRange = m.Compatibility.Storyblok
		}
	}

	details := [][]string{
		{"Type", m.Type.String()},
		{"Author", fmt.Sprintf("%s (@%s)", m.Author.Name, m.Author.GitHub)},
		{"Category", category},
		{"Tags", tags},
		{"Frameworks", frameworks},
		{"Storyblok", storyblokRange},
		{"Status", m.StatusOrDefault()},
	}
	if m.Metadata != nil && m.Metadata.Created != "" {
		details = append(details, []string{"Created", m.Metadata.Created})
	}
	if m.Metadata != nil && m.Metadata.Updated != "" {
		details = append(details, []string{"Updated", m.Metadata.Updated})
	}

	width := 0
	for _, d := range details {
		width = max(width, len(d[0])+1)
	}
	for _, d := range details {
		a.output.Println("  %-*s %s", width+1, d[0]+":", d[1])
	}

	a.printList("Dependencies", m.DependencyNames())
	a.printList("Includes", m.Includes)

	if m.Files != nil {
		var files []string
		for _, f := range []string{m.Files.Schema, m.Files.Prompt, m.Files.Readme} {
			if f != "" {
				files = append(files, f)
			}
		}
		a.printList("Files", files)
	}

	var links []string
	for _, label := range slices.Sorted(maps.Keys(m.Links)) {
		links = append(links, label+": "+m.Links[label])
	}
	a.printList("Links", links)

	a.output.Dim("\n  Install:")
	a.output.Println("    %s\n", a.output.Accent("bloktastic add "+m.Name))
}

func (a *App) printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	a.output.Dim("\n  %s:", title)
	for _, item := range items {
		a.output.Println("    • %s", item)
	}
}

// formatDate trims an RFC 3339 timestamp to its date.
func formatDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
