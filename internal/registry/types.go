package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bloktastic/bloktastic/internal/errs"
)

const (
	RegistryFile = "registry.json"
	ManifestFile = "bloktastic.json"

	DefaultSchemaFile = "schema.json"
	DefaultPromptFile = "prompt.md"
	DefaultReadmeFile = "README.md"
)

// Kind is the closed set of package types.
type Kind uint8

const (
	KindComponent Kind = iota + 1
	KindPlugin
	KindPreset
)

// Kinds lists every kind in registry order.
var Kinds = []Kind{KindComponent, KindPlugin, KindPreset}

// UnknownTypeError is returned when a manifest or flag names a type outside
// component, plugin and preset.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown package type: %q (want component, plugin or preset)", e.Type)
}

func (e *UnknownTypeError) Kind() errs.Kind {
	return errs.KindUnknownPackageType
}

// ParseKind converts a type string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "component":
		return KindComponent, nil
	case "plugin":
		return KindPlugin, nil
	case "preset":
		return KindPreset, nil
	}
	return 0, &UnknownTypeError{Type: s}
}

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindPlugin:
		return "plugin"
	case KindPreset:
		return "preset"
	}
	return "unknown"
}

// Dir is the registry directory holding packages of this kind.
func (k Kind) Dir() string {
	return k.String() + "s"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if k == 0 {
		return nil, &UnknownTypeError{Type: ""}
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("package type must be a string: %w", err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Data is the registry.json document.
type Data struct {
	Schema     string      `json:"$schema,omitempty"`
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	Homepage   string      `json:"homepage,omitempty"`
	Repository string      `json:"repository,omitempty"`
	Packages   Packages    `json:"packages"`
	Categories *Categories `json:"categories,omitempty"`
	Stats      *Stats      `json:"stats,omitempty"`
}

// Packages groups entries by kind. Order inside each list is significant.
type Packages struct {
	Components []Entry `json:"components"`
	Plugins    []Entry `json:"plugins"`
	Presets    []Entry `json:"presets"`
}

// Categories lists the known categories per kind.
type Categories struct {
	Components []string `json:"components,omitempty"`
	Plugins    []string `json:"plugins,omitempty"`
}

// Stats is regenerated by the registry build.
type Stats struct {
	TotalComponents int    `json:"totalComponents"`
	TotalPlugins    int    `json:"totalPlugins"`
	TotalPresets    int    `json:"totalPresets"`
	LastUpdated     string `json:"lastUpdated"`
}

// Entry is the summary of a package in registry.json.
type Entry struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Version  string   `json:"version"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Category *string  `json:"category"`
	Status   string   `json:"status,omitempty"`
}

// CategoryName returns the category or "" when unset.
func (e Entry) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// Package is an Entry tagged with its kind.
type Package struct {
	Entry
	Kind Kind
}

// Status values of Metadata.Status.
const (
	StatusStable       = "stable"
	StatusMaintained   = "maintained"
	StatusUnmaintained = "unmaintained"
	StatusDeprecated   = "deprecated"
	StatusArchived     = "archived"
)

// Manifest is a package's bloktastic.json.
type Manifest struct {
	Schema        string            `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Name          string            `json:"name" yaml:"name"`
	Type          Kind              `json:"type" yaml:"type"`
	Version       string            `json:"version" yaml:"version"`
	Title         string            `json:"title" yaml:"title"`
	Description   string            `json:"description" yaml:"description"`
	Author        Author            `json:"author" yaml:"author"`
	Compatibility *Compatibility    `json:"compatibility,omitempty" yaml:"compatibility,omitempty"`
	Tags          []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category      string            `json:"category,omitempty" yaml:"category,omitempty"`
	Files         *Files            `json:"files,omitempty" yaml:"files,omitempty"`
	Dependencies  *Dependencies     `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Includes      []string          `json:"includes,omitempty" yaml:"includes,omitempty"`
	Links         map[string]string `json:"links,omitempty" yaml:"links,omitempty"`
	Metadata      *Metadata         `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type Author struct {
	Name   string `json:"name" yaml:"name"`
	GitHub string `json:"github" yaml:"github"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
}

type Compatibility struct {
	Storyblok    string   `json:"storyblok,omitempty" yaml:"storyblok,omitempty"`
	StoryblokMax string   `json:"storyblokMax,omitempty" yaml:"storyblokMax,omitempty"`
	Frameworks   []string `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
}

// Files names the package's documents relative to its directory.
type Files struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Readme string `json:"readme,omitempty" yaml:"readme,omitempty"`
}

type Dependencies struct {
	Bloktastic []string `json:"bloktastic,omitempty" yaml:"bloktastic,omitempty"`
}

type Metadata struct {
	Created string `json:"created,omitempty" yaml:"created,omitempty"`
	Updated string `json:"updated,omitempty" yaml:"updated,omitempty"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
}

// SchemaFile returns the declared schema file or the default.
func (m *Manifest) SchemaFile() string {
	if m.Files != nil && m.Files.Schema != "" {
		return m.Files.Schema
	}
	return DefaultSchemaFile
}

// PromptFile returns the declared prompt file or the default.
func (m *Manifest) PromptFile() string {
	if m.Files != nil && m.Files.Prompt != "" {
		return m.Files.Prompt
	}
	return DefaultPromptFile
}

// ReadmeFile returns the declared readme file or the default.
func (m *Manifest) ReadmeFile() string {
	if m.Files != nil && m.Files.Readme != "" {
		return m.Files.Readme
	}
	return DefaultReadmeFile
}

// DependencyNames returns dependencies.bloktastic in declaration order.
func (m *Manifest) DependencyNames() []string {
	if m.Dependencies == nil {
		return nil
	}
	return m.Dependencies.Bloktastic
}

// StatusOrDefault returns metadata.status, defaulting to stable.
func (m *Manifest) StatusOrDefault() string {
	if m.Metadata != nil && m.Metadata.Status != "" {
		return m.Metadata.Status
	}
	return StatusStable
}

// Visitor handles each package kind. Accept calls exactly one method.
type Visitor interface {
	VisitComponent(m *Manifest) error
	VisitPlugin(m *Manifest) error
	VisitPreset(m *Manifest) error
}

// Accept dispatches m to the visitor method for its kind. Decoded manifests
// always carry a valid kind; only a zero-value Manifest reaches the error.
func (m *Manifest) Accept(v Visitor) error {
	switch m.Type {
	case KindComponent:
		return v.VisitComponent(m)
	case KindPlugin:
		return v.VisitPlugin(m)
	case KindPreset:
		return v.VisitPreset(m)
	}
	return &UnknownTypeError{Type: m.Type.String()}
}

// ParseManifest decodes a bloktastic.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Type == 0 {
		return nil, &UnknownTypeError{Type: ""}
	}
	return &m, nil
}
