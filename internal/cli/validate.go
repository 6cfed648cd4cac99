package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bloktastic/bloktastic/internal/validator"
)

func (a *App) newValidateCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a Bloktastic package",
		Long:  "Checks a package directory: the manifest against its JSON Schema, the files its type requires, and that its dependencies exist in the registry.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), args[0], quiet)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "only output errors")
	return cmd
}

func (a *App) runValidate(ctx context.Context, path string, quiet bool) error {
	dir := path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.projectDir, dir)
	}

	v := validator.New(validator.WithWorkDir(a.projectDir))
	report, err := v.CheckPackage(ctx, dir, a.newRegistryClient())
	if err != nil {
		return err
	}

	if !quiet {
		a.output.Println("\nValidating %s...\n", a.output.Accent(report.Name))
		for _, p := range report.Passed {
			a.output.Success("%s", p)
		}
	}
	for _, w := range report.Warnings {
		a.output.Warning("%s", w)
	}
	for _, e := range report.Errors {
		a.output.Error("%s", e)
	}

	a.output.Println("")
	if !report.OK() {
		return &ExitError{Code: ExitFailure, Message: "Package has validation errors. Please fix them before submitting."}
	}
	a.output.Success("Package is valid and ready for submission!")
	return nil
}
