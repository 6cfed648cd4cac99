package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/registry"
)

// PromptSections are the headings every component prompt should contain.
var PromptSections = []string{
	"## Purpose",
	"## Storyblok Schema Fields",
	"## Visual Requirements",
	"## Accessibility",
}

// Finder resolves dependency names. *registry.Client satisfies it.
type Finder interface {
	FindPackage(ctx context.Context, name string) (*registry.Package, error)
}

// Report collects the outcome of CheckPackage.
type Report struct {
	Name     string
	Passed   []string
	Warnings []string
	Errors   []string
}

// OK reports whether no check failed. Warnings do not count.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) pass(format string, args ...any) {
	r.Passed = append(r.Passed, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// CheckPackage validates the package directory dir: its manifest against
// the schema, then the files its type requires, then that every declared
// dependency exists. A nil finder skips the dependency check.
//
// The error return covers problems that stop the check altogether: a
// missing directory or an unreadable manifest.
func (v *Validator) CheckPackage(ctx context.Context, dir string, finder Finder) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errs.New(errs.KindNotFound, "directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, errs.New(errs.KindInvalidArgument, "%s is not a directory", dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, registry.ManifestFile))
	if err != nil || !json.Valid(raw) {
		return nil, errs.New(errs.KindLoadFailure, "%s not found or invalid JSON", registry.ManifestFile)
	}

	report := &Report{}

	result, err := v.ValidateManifest(raw)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		report.pass("%s valid", registry.ManifestFile)
	} else {
		for _, e := range result.Errors {
			report.fail("%s: %s", registry.ManifestFile, e)
		}
	}

	manifest, err := registry.ParseManifest(raw)
	if err != nil {
		var typeErr *registry.UnknownTypeError
		if !errors.As(err, &typeErr) {
			report.fail("%s could not be decoded: %v", registry.ManifestFile, err)
			return report, nil
		}
		// Unknown types are already reported by the schema check. The
		// type-independent checks still run on the rest of the document.
		manifest, err = decodeLoose(raw)
		if err != nil {
			report.fail("%s could not be decoded: %v", registry.ManifestFile, err)
			return report, nil
		}
	}
	report.Name = manifest.Name

	if manifest.Type == registry.KindComponent {
		checkComponentFiles(dir, manifest, report)
	}

	readmeFile := manifest.ReadmeFile()
	if readme, err := os.ReadFile(filepath.Join(dir, readmeFile)); err == nil {
		report.pass("%s exists (%s)", readmeFile, kb(len(readme)))
	} else {
		report.warn("%s not found (recommended)", readmeFile)
	}

	deps := manifest.DependencyNames()
	if len(deps) > 0 && finder != nil {
		missing := 0
		for _, dep := range deps {
			if _, err := finder.FindPackage(ctx, dep); err != nil {
				missing++
				if errs.Is(err, errs.KindNotFound) {
					report.fail("Dependency not found in registry: %s", dep)
				} else {
					report.fail("Dependency %s could not be checked: %v", dep, err)
				}
			}
		}
		if missing == 0 {
			report.pass("Dependencies available: %s", strings.Join(deps, ", "))
		}
	}

	return report, nil
}

// decodeLoose decodes everything but the package type.
func decodeLoose(raw []byte) (*registry.Manifest, error) {
	var loose struct {
		Name         string                 `json:"name"`
		Files        *registry.Files        `json:"files"`
		Dependencies *registry.Dependencies `json:"dependencies"`
	}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}
	return &registry.Manifest{
		Name:         loose.Name,
		Files:        loose.Files,
		Dependencies: loose.Dependencies,
	}, nil
}

func checkComponentFiles(dir string, m *registry.Manifest, report *Report) {
	schemaFile := m.SchemaFile()
	raw, err := os.ReadFile(filepath.Join(dir, schemaFile))
	var schema map[string]any
	if err != nil || json.Unmarshal(raw, &schema) != nil {
		report.fail("%s not found or invalid JSON", schemaFile)
	} else {
		_, hasName := schema["name"].(string)
		_, hasFields := schema["schema"].(map[string]any)
		if hasName && hasFields {
			report.pass("%s valid (Storyblok format)", schemaFile)
		} else {
			report.fail("%s is missing required Storyblok fields (name, schema)", schemaFile)
		}
	}

	promptFile := m.PromptFile()
	prompt, err := os.ReadFile(filepath.Join(dir, promptFile))
	if err != nil {
		report.fail("%s not found", promptFile)
		return
	}
	report.pass("%s exists (%s)", promptFile, kb(len(prompt)))
	for _, section := range PromptSections {
		label := strings.TrimPrefix(section, "## ")
		if strings.Contains(string(prompt), section) {
			report.pass("Contains required section: %s", label)
		} else {
			report.warn("Missing recommended prompt section: %s", label)
		}
	}
}

func kb(n int) string {
	return fmt.Sprintf("%.1fkb", float64(n)/1024)
}
