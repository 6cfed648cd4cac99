package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gowebpki/jcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureDir = filepath.Join("..", "..", "testdata", "registry")

func readFixture(t *testing.T, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return data
}

func anyContains(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestFixtureManifestsAreValid(t *testing.T) {
	v := New()
	for _, rel := range []string{
		"components/button/bloktastic.json",
		"components/card/bloktastic.json",
		"components/hero-slider/bloktastic.json",
		"plugins/hero-tool/bloktastic.json",
		"presets/landing-kit/bloktastic.json",
	} {
		result, err := v.ValidateManifest(readFixture(t, rel))
		require.NoError(t, err)
		assert.True(t, result.Valid, "%s: %v", rel, result.Errors)
		assert.Empty(t, result.Errors, rel)
	}
}

func TestFixtureRegistryIsValid(t *testing.T) {
	result, err := New().ValidateRegistry(readFixture(t, "registry.json"))
	require.NoError(t, err)
	assert.True(t, result.Valid, "%v", result.Errors)
}

func TestInvalidManifest(t *testing.T) {
	doc := []byte(`{
		"name": "@bloktastic/bad",
		"type": "component",
		"version": "one",
		"title": "Bad",
		"description": "short",
		"files": {"schema": "schema.json"}
	}`)

	result, err := New().ValidateManifest(doc)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, anyContains(result.Errors, "author"), "missing author should be reported: %v", result.Errors)
	assert.True(t, anyContains(result.Errors, "version"), "bad version should be reported: %v", result.Errors)
	for _, e := range result.Errors {
		assert.True(t, strings.HasPrefix(e, "/"), "error %q should start with a pointer", e)
	}
	assert.IsNonDecreasing(t, result.Errors)
}

func TestPresetRequiresIncludes(t *testing.T) {
	doc := []byte(`{
		"name": "@bloktastic/kit",
		"type": "preset",
		"version": "1.0.0",
		"title": "Kit",
		"description": "A preset without includes",
		"author": {"name": "A", "github": "a"}
	}`)

	result, err := New().ValidateManifest(doc)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, anyContains(result.Errors, "includes"), "%v", result.Errors)
}

func TestInvalidJSON(t *testing.T) {
	result, err := New().ValidateConfig([]byte(`{"space":`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"/: invalid JSON"}, result.Errors)
}

func TestConfigSchema(t *testing.T) {
	v := New()

	ok, err := v.ValidateConfig([]byte(`{
		"space": {"id": "123456", "region": "eu"},
		"preferences": {"promptOutput": "clipboard"},
		"installedPackages": [{"name": "@bloktastic/button", "version": "1.0.0", "installedAt": "2026-02-01T10:00:00Z"}]
	}`))
	require.NoError(t, err)
	assert.True(t, ok.Valid, "%v", ok.Errors)

	bad, err := v.ValidateConfig([]byte(`{"space": {"id": "abc", "region": "mars"}}`))
	require.NoError(t, err)
	assert.False(t, bad.Valid)
}

func TestValidationIsStableUnderCanonicalization(t *testing.T) {
	v := New()
	docs := [][]byte{
		readFixture(t, "components/hero-slider/bloktastic.json"),
		readFixture(t, "presets/landing-kit/bloktastic.json"),
		[]byte(`{"type": "plugin", "name": "NOT VALID", "tags": ["a", "a"]}`),
		[]byte(`{"version": "1.0", "description": "x", "author": {"github": "bad name"}}`),
	}

	for _, doc := range docs {
		first, err := v.ValidateManifest(doc)
		require.NoError(t, err)

		canonical, err := jcs.Transform(doc)
		require.NoError(t, err)
		second, err := v.ValidateManifest(canonical)
		require.NoError(t, err)

		assert.Equal(t, first, second, "canonical form of %s", doc)
	}
}

func TestWorkDirOverride(t *testing.T) {
	root := t.TempDir()
	schemaDir := filepath.Join(root, "schema")
	require.NoError(t, os.MkdirAll(schemaDir, 0755))
	strict := `{"type": "object", "required": ["mustExist"]}`
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, SchemaConfig.FileName()), []byte(strict), 0644))

	nested := filepath.Join(root, "site", "app")
	require.NoError(t, os.MkdirAll(nested, 0755))

	result, err := New(WithWorkDir(nested)).ValidateConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.False(t, result.Valid, "override schema should be used")

	embeddedResult, err := New().ValidateConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, embeddedResult.Valid)
}
