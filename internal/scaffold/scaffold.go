// Package scaffold generates new package directories for the registry.
package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/bloktastic/bloktastic/internal/config"
	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
	"github.com/bloktastic/bloktastic/internal/registry"
)

const (
	ManifestSchemaURL = "https://bloktastic.dev/schema/bloktastic.schema.json"

	DefaultNamespace  = "bloktastic"
	DefaultAuthorName = "Bloktastic Contributor"
	DefaultGitHub     = "bloktastic"
	InitialVersion    = "1.0.0"
	MinStoryblok      = ">=2.0.0"
	maxTags           = 10
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var (
	namePattern      = regexp.MustCompile(`^[a-z0-9-]{2,50}$`)
	namespacePattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	githubPattern    = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// Options describe the package to scaffold.
type Options struct {
	Kind        registry.Kind
	Name        string
	Namespace   string
	Title       string
	Description string
	Category    string
	// Tags is the raw comma-separated list as typed by the user.
	Tags         string
	AuthorName   string
	AuthorGitHub string
	Date         time.Time
}

// FullName is "@namespace/name".
func (o Options) FullName() string {
	return registry.FormatName(o.Namespace, o.Name)
}

// ApplyDefaults fills every empty field with the value used by
// non-interactive creation.
func (o *Options) ApplyDefaults() {
	o.Namespace = strings.TrimPrefix(o.Namespace, "@")
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.Title == "" {
		o.Title = DisplayTitle(o.Name)
	}
	if o.Description == "" {
		o.Description = DisplayTitle(o.Name) + " package scaffold"
	}
	if o.Category == "" {
		o.Category = DefaultCategory(o.Kind)
	}
	if o.Tags == "" {
		o.Tags = o.Name
	}
	if o.AuthorName == "" {
		o.AuthorName = DefaultAuthorName
	}
	if o.AuthorGitHub == "" {
		o.AuthorGitHub = DefaultGitHub
	}
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
}

// DefaultCategory is the first category of kind, or "" for presets.
func DefaultCategory(kind registry.Kind) string {
	switch kind {
	case registry.KindComponent:
		return registry.ComponentCategories[0]
	case registry.KindPlugin:
		return registry.PluginCategories[0]
	}
	return ""
}

// Categories lists the categories offered for kind.
func Categories(kind registry.Kind) []string {
	switch kind {
	case registry.KindComponent:
		return registry.ComponentCategories
	case registry.KindPlugin:
		return registry.PluginCategories
	}
	return nil
}

func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errs.New(errs.KindInvalidArgument, "name must be lowercase, alphanumeric, hyphenated, and 2-50 chars")
	}
	return nil
}

func ValidateNamespace(ns string) error {
	if !namespacePattern.MatchString(strings.TrimPrefix(ns, "@")) {
		return errs.New(errs.KindInvalidArgument, "namespace must be lowercase with hyphens")
	}
	return nil
}

func ValidateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) < 10 {
		return errs.New(errs.KindInvalidArgument, "description must be at least 10 characters")
	}
	return nil
}

func ValidateGitHub(user string) error {
	if !githubPattern.MatchString(user) {
		return errs.New(errs.KindInvalidArgument, "GitHub username is invalid")
	}
	return nil
}

// Validate checks every user-supplied field.
func (o Options) Validate() error {
	if o.Kind == 0 {
		return &registry.UnknownTypeError{}
	}
	for _, check := range []func() error{
		func() error { return ValidateName(o.Name) },
		func() error { return ValidateNamespace(o.Namespace) },
		func() error { return ValidateDescription(o.Description) },
		func() error { return ValidateGitHub(o.AuthorGitHub) },
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ParseTags lower-cases and trims a comma-separated list, dropping empty
// and repeated entries and keeping at most ten.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || slices.Contains(tags, tag) {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// DisplayTitle turns "hero-slider" into "Hero Slider".
func DisplayTitle(name string) string {
	return strings.Join(capitalizeWords(name), " ")
}

// PascalCase turns "hero-slider" into "HeroSlider".
func PascalCase(name string) string {
	return strings.Join(capitalizeWords(name), "")
}

func capitalizeWords(name string) []string {
	var words []string
	for _, w := range strings.Split(name, "-") {
		if w == "" {
			continue
		}
		words = append(words, strings.ToUpper(w[:1])+w[1:])
	}
	return words
}

// DefaultBaseDir is registry/<kind dir> below workDir.
func DefaultBaseDir(workDir string, kind registry.Kind) string {
	return filepath.Join(workDir, "registry", kind.Dir())
}

// manifestDoc keeps empty dependency and include lists in the output.
type manifestDoc struct {
	*registry.Manifest
	Dependencies dependencyList `json:"dependencies"`
	Includes     *[]string      `json:"includes,omitempty"`
}

type dependencyList struct {
	Bloktastic []string `json:"bloktastic"`
}

// Manifest builds the bloktastic.json content for o.
func Manifest(o Options) *registry.Manifest {
	date := o.Date.Format(time.DateOnly)

	m := &registry.Manifest{
		Schema:      ManifestSchemaURL,
		Name:        o.FullName(),
		Type:        o.Kind,
		Version:     InitialVersion,
		Title:       o.Title,
		Description: o.Description,
		Author:      registry.Author{Name: o.AuthorName, GitHub: o.AuthorGitHub},
		Tags:        ParseTags(o.Tags),
		Dependencies: &registry.Dependencies{
			Bloktastic: []string{},
		},
		Metadata: &registry.Metadata{
			Created: date,
			Updated: date,
			Status:  registry.StatusStable,
		},
	}

	switch o.Kind {
	case registry.KindComponent:
		m.Compatibility = &registry.Compatibility{Storyblok: MinStoryblok, Frameworks: config.Frameworks}
		m.Category = o.Category
		m.Files = &registry.Files{
			Schema: registry.DefaultSchemaFile,
			Prompt: registry.DefaultPromptFile,
			Readme: registry.DefaultReadmeFile,
		}
	case registry.KindPlugin:
		m.Compatibility = &registry.Compatibility{Storyblok: MinStoryblok, Frameworks: []string{"agnostic"}}
		m.Category = o.Category
		m.Files = &registry.Files{Readme: registry.DefaultReadmeFile}
		m.Links = map[string]string{
			"website": "https://example.com",
			"docs":    "https://example.com/docs",
		}
		m.Metadata.Status = registry.StatusMaintained
	case registry.KindPreset:
		m.Compatibility = &registry.Compatibility{Storyblok: MinStoryblok, Frameworks: config.Frameworks}
		m.Files = &registry.Files{Readme: registry.DefaultReadmeFile}
		m.Includes = []string{}
	}
	return m
}

func encodeManifest(m *registry.Manifest) ([]byte, error) {
	doc := manifestDoc{Manifest: m, Dependencies: dependencyList{Bloktastic: m.DependencyNames()}}
	if doc.Dependencies.Bloktastic == nil {
		doc.Dependencies.Bloktastic = []string{}
	}
	if m.Type == registry.KindPreset {
		includes := m.Includes
		if includes == nil {
			includes = []string{}
		}
		doc.Includes = &includes
	}
	return marshalIndent(doc)
}

type schemaField struct {
	Type        string `json:"type"`
	Pos         int    `json:"pos"`
	Required    bool   `json:"required,omitempty"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type componentSchema struct {
	Bloktastic   map[string]string      `json:"$bloktastic"`
	Name         string                 `json:"name"`
	DisplayName  string                 `json:"display_name"`
	IsRoot       bool                   `json:"is_root"`
	IsNestable   bool                   `json:"is_nestable"`
	Schema       map[string]schemaField `json:"schema"`
	PreviewField string                 `json:"preview_field"`
}

func componentSchemaFor(o Options) componentSchema {
	return componentSchema{
		Bloktastic:  map[string]string{"version": InitialVersion},
		Name:        o.Name,
		DisplayName: o.Title,
		IsNestable:  true,
		Schema: map[string]schemaField{
			"headline": {Type: "text", Pos: 0, Required: true, DisplayName: "Headline", Description: "Primary heading text"},
			"body":     {Type: "richtext", Pos: 1, DisplayName: "Body", Description: "Supporting content"},
		},
		PreviewField: "headline",
	}
}

type templateData struct {
	Options
	FullName   string
	PascalName string
}

func render(name string, o Options) ([]byte, error) {
	var buf bytes.Buffer
	data := templateData{Options: o, FullName: o.FullName(), PascalName: PascalCase(o.Name)}
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Files renders every file of the package.
func Files(o Options) ([]filemanager.File, error) {
	manifest, err := encodeManifest(Manifest(o))
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	files := []filemanager.File{{Name: registry.ManifestFile, Data: manifest}}

	var readmeTemplate string
	switch o.Kind {
	case registry.KindComponent:
		schema, err := marshalIndent(componentSchemaFor(o))
		if err != nil {
			return nil, fmt.Errorf("encoding schema: %w", err)
		}
		prompt, err := render("component_prompt.md.tmpl", o)
		if err != nil {
			return nil, err
		}
		files = append(files,
			filemanager.File{Name: registry.DefaultSchemaFile, Data: schema},
			filemanager.File{Name: registry.DefaultPromptFile, Data: prompt},
		)
		readmeTemplate = "component_readme.md.tmpl"
	case registry.KindPlugin:
		readmeTemplate = "plugin_readme.md.tmpl"
	default:
		readmeTemplate = "preset_readme.md.tmpl"
	}

	readme, err := render(readmeTemplate, o)
	if err != nil {
		return nil, err
	}
	return append(files, filemanager.File{Name: registry.DefaultReadmeFile, Data: readme}), nil
}

// Create validates o and writes the package below baseDir. It returns the
// package directory and refuses to overwrite an existing one.
func Create(baseDir string, o Options) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	files, err := Files(o)
	if err != nil {
		return "", err
	}

	dir, err := filemanager.NewManager(baseDir).CreatePackage(o.Name, files)
	if errors.Is(err, filemanager.ErrExists) {
		return "", errs.Wrap(err, errs.KindInvalidArgument, "pick another name or remove the existing directory")
	}
	return dir, err
}
