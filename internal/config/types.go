package config

import (
	"github.com/bloktastic/bloktastic/internal/errs"
)

const (
	ConfigFile = "bloktastic.config.json"
	SchemaURL  = "https://bloktastic.dev/schema/config.schema.json"

	DefaultFramework       = "astro"
	DefaultOutputDirectory = "./components/storyblok"
	DefaultRegion          = "eu"

	// PromptDir is where prompts are written with PromptFile output.
	PromptDir = "bloktastic-prompts"
)

// PromptOutput selects where component prompts go after an install.
type PromptOutput string

const (
	PromptClipboard PromptOutput = "clipboard"
	PromptFile      PromptOutput = "file"
	PromptStdout    PromptOutput = "stdout"
)

// PromptOutputs lists the accepted values, default first.
var PromptOutputs = []PromptOutput{PromptClipboard, PromptFile, PromptStdout}

// ParsePromptOutput validates s. An empty string yields the default.
func ParsePromptOutput(s string) (PromptOutput, error) {
	if s == "" {
		return PromptClipboard, nil
	}
	for _, p := range PromptOutputs {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errs.New(errs.KindInvalidArgument, "unknown prompt output %q (want clipboard, file or stdout)", s)
}

// Frameworks are the framework identifiers a package can target.
var Frameworks = []string{"vue", "nuxt", "react", "nextjs", "astro", "svelte", "agnostic"}

// Space identifies the Storyblok space components are pushed to.
type Space struct {
	ID     string `json:"id"`
	Region string `json:"region"`
}

// Preferences are per-project defaults chosen at init.
type Preferences struct {
	DefaultFramework string       `json:"defaultFramework,omitempty"`
	OutputDirectory  string       `json:"outputDirectory,omitempty"`
	PromptOutput     PromptOutput `json:"promptOutput,omitempty"`
}

// InstalledPackage records one successful install. It is history only and
// never used to skip an install.
type InstalledPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	InstalledAt string `json:"installedAt"`
}
