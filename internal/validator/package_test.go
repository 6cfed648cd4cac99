package validator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/registry"
)

type mapFinder map[string]registry.Kind

func (f mapFinder) FindPackage(_ context.Context, name string) (*registry.Package, error) {
	kind, ok := f[name]
	if !ok {
		return nil, &registry.NotFoundError{Name: name}
	}
	return &registry.Package{Entry: registry.Entry{Name: name}, Kind: kind}, nil
}

func copyPackage(t *testing.T, rel string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), filepath.Base(rel))
	require.NoError(t, os.CopyFS(dir, os.DirFS(filepath.Join(fixtureDir, rel))))
	return dir
}

func TestCheckPackageValidComponent(t *testing.T) {
	finder := mapFinder{"@bloktastic/button": registry.KindComponent}

	report, err := New().CheckPackage(context.Background(), filepath.Join(fixtureDir, "components", "hero-slider"), finder)
	require.NoError(t, err)

	assert.True(t, report.OK(), "errors: %v", report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, "@bloktastic/hero-slider", report.Name)
	assert.Contains(t, report.Passed, "schema.json valid (Storyblok format)")
	assert.Contains(t, report.Passed, "Dependencies available: @bloktastic/button")
}

func TestCheckPackageMissingSchema(t *testing.T) {
	dir := copyPackage(t, "components/button")
	require.NoError(t, os.Remove(filepath.Join(dir, "schema.json")))

	report, err := New().CheckPackage(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Contains(t, report.Errors, "schema.json not found or invalid JSON")
}

func TestCheckPackageSchemaWithoutFields(t *testing.T) {
	dir := copyPackage(t, "components/button")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.json"), []byte(`{"name": "button"}`), 0644))

	report, err := New().CheckPackage(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Contains(t, report.Errors, "schema.json is missing required Storyblok fields (name, schema)")
}

func TestCheckPackagePromptSectionsAreWarnings(t *testing.T) {
	dir := copyPackage(t, "components/button")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("# Button\n\n## Purpose\n\nA button.\n"), 0644))
	require.NoError(t, os.Remove(filepath.Join(dir, "README.md")))

	report, err := New().CheckPackage(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.True(t, report.OK(), "errors: %v", report.Errors)
	assert.ElementsMatch(t, []string{
		"Missing recommended prompt section: Storyblok Schema Fields",
		"Missing recommended prompt section: Visual Requirements",
		"Missing recommended prompt section: Accessibility",
		"README.md not found (recommended)",
	}, report.Warnings)
}

func TestCheckPackageMissingDependency(t *testing.T) {
	report, err := New().CheckPackage(context.Background(), filepath.Join(fixtureDir, "components", "card"), mapFinder{})
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Contains(t, report.Errors, "Dependency not found in registry: @bloktastic/button")
}

func TestCheckPackagePlugin(t *testing.T) {
	report, err := New().CheckPackage(context.Background(), filepath.Join(fixtureDir, "plugins", "hero-tool"), mapFinder{})
	require.NoError(t, err)
	assert.True(t, report.OK(), "errors: %v", report.Errors)
	assert.Contains(t, report.Passed, "bloktastic.json valid")
}

func TestCheckPackageFatalErrors(t *testing.T) {
	v := New()
	ctx := context.Background()

	_, err := v.CheckPackage(ctx, filepath.Join(t.TempDir(), "missing"), nil)
	assert.True(t, errs.Is(err, errs.KindNotFound), "err = %v", err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = v.CheckPackage(ctx, file, nil)
	assert.True(t, errs.Is(err, errs.KindInvalidArgument), "err = %v", err)

	empty := t.TempDir()
	_, err = v.CheckPackage(ctx, empty, nil)
	assert.True(t, errs.Is(err, errs.KindLoadFailure), "err = %v", err)
}

func TestCheckPackageUnknownType(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"name": "@bloktastic/odd", "type": "widget", "version": "1.0.0", "title": "Odd",
		"description": "A widget package", "author": {"name": "A", "github": "a"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, registry.ManifestFile), []byte(manifest), 0644))

	report, err := New().CheckPackage(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, "@bloktastic/odd", report.Name)
	assert.True(t, anyContains(report.Errors, "bloktastic.json: /"), "%v", report.Errors)
	assert.Contains(t, report.Warnings, "README.md not found (recommended)")
}

func TestCheckPackageUnknownTypeStillChecksReadmeAndDependencies(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"name": "@bloktastic/odd", "type": "widget", "version": "1.0.0", "title": "Odd",
		"description": "A widget package", "author": {"name": "A", "github": "a"},
		"files": {"readme": "DOCS.md"},
		"dependencies": {"bloktastic": ["@bloktastic/button", "@bloktastic/ghost"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, registry.ManifestFile), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DOCS.md"), []byte("# Odd\n"), 0644))

	finder := mapFinder{"@bloktastic/button": registry.KindComponent}
	report, err := New().CheckPackage(context.Background(), dir, finder)
	require.NoError(t, err)

	assert.Equal(t, "@bloktastic/odd", report.Name)
	assert.True(t, anyContains(report.Passed, "DOCS.md exists"), "%v", report.Passed)
	assert.Contains(t, report.Errors, "Dependency not found in registry: @bloktastic/ghost")
}

func TestCheckPackageUndecodableManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"name": "@bloktastic/odd", "type": "widget", "dependencies": "none"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, registry.ManifestFile), []byte(manifest), 0644))

	report, err := New().CheckPackage(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.True(t, anyContains(report.Errors, "bloktastic.json could not be decoded"), "%v", report.Errors)
}
