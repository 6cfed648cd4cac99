// Package config reads and writes bloktastic.config.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
)

var spaceIDPattern = regexp.MustCompile(`^\d+$`)

// Config represents the bloktastic.config.json file.
type Config struct {
	Schema            string             `json:"$schema,omitempty"`
	Space             *Space             `json:"space,omitempty"`
	Preferences       Preferences        `json:"preferences"`
	InstalledPackages []InstalledPackage `json:"installedPackages"`
}

// NewConfig returns a config with the init defaults for the given space.
func NewConfig(spaceID, region string) *Config {
	if region == "" {
		region = DefaultRegion
	}
	return &Config{
		Schema: SchemaURL,
		Space:  &Space{ID: spaceID, Region: region},
		Preferences: Preferences{
			DefaultFramework: DefaultFramework,
			OutputDirectory:  DefaultOutputDirectory,
			PromptOutput:     PromptClipboard,
		},
		InstalledPackages: []InstalledPackage{},
	}
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, ConfigFile)
}

// Exists checks whether the config file exists in the given directory.
func Exists(dir string) bool {
	return filemanager.Exists(Path(dir))
}

// Load reads the config file from dir. A missing file is not an error:
// Load returns nil, nil.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(fmt.Errorf("reading config: %w", err), errs.KindLoadFailure, "")
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errs.Wrap(fmt.Errorf("parsing %s: %w", ConfigFile, err), errs.KindLoadFailure,
			"Fix the JSON by hand or run 'bloktastic init' to recreate it")
	}
	return &c, nil
}

// Save writes c to dir atomically, two-space indented with a trailing newline.
func Save(dir string, c *Config) error {
	if c.InstalledPackages == nil {
		c.InstalledPackages = []InstalledPackage{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := filemanager.WriteFileAtomic(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Validate checks the fields the installer relies on.
func (c *Config) Validate() error {
	if c.Space != nil {
		if err := ValidateSpaceID(c.Space.ID); err != nil {
			return err
		}
	}
	if c.Preferences.PromptOutput != "" {
		if _, err := ParsePromptOutput(string(c.Preferences.PromptOutput)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSpaceID checks that id is a numeric Storyblok space id.
func ValidateSpaceID(id string) error {
	if !spaceIDPattern.MatchString(id) {
		return errs.New(errs.KindInvalidArgument, "space id must be numeric, got %q", id)
	}
	return nil
}

// SpaceID returns the configured space id or "".
func (c *Config) SpaceID() string {
	if c == nil || c.Space == nil {
		return ""
	}
	return c.Space.ID
}

// Region returns the configured region or "".
func (c *Config) Region() string {
	if c == nil || c.Space == nil {
		return ""
	}
	return c.Space.Region
}

// Installed returns the record for name, if any.
func (c *Config) Installed(name string) (InstalledPackage, bool) {
	if c == nil {
		return InstalledPackage{}, false
	}
	for _, p := range c.InstalledPackages {
		if p.Name == name {
			return p, true
		}
	}
	return InstalledPackage{}, false
}

// Record replaces any record with the same name and keeps the list sorted
// by name.
func (c *Config) Record(pkg InstalledPackage) {
	list := slices.DeleteFunc(slices.Clone(c.InstalledPackages), func(p InstalledPackage) bool {
		return p.Name == pkg.Name
	})
	list = append(list, pkg)
	slices.SortStableFunc(list, func(a, b InstalledPackage) int {
		return strings.Compare(a.Name, b.Name)
	})
	c.InstalledPackages = list
}

// AddInstalledPackage re-reads the config in dir, records pkg and saves it.
// Without a config file it does nothing.
func AddInstalledPackage(dir string, pkg InstalledPackage) error {
	c, err := Load(dir)
	if err != nil || c == nil {
		return err
	}
	c.Record(pkg)
	return Save(dir, c)
}
