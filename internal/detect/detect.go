// Package detect guesses a project's frontend framework from package.json.
package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Framework is a detected framework identifier and its major version.
type Framework struct {
	Name  string
	Major string
}

func (f Framework) String() string {
	if f.Major == "" {
		return f.Name
	}
	return f.Name + " " + f.Major
}

// Meta-frameworks come first so a Nuxt project is not reported as Vue.
var frameworkPackages = []struct {
	pkg  string
	name string
}{
	{"nuxt", "nuxt"},
	{"next", "nextjs"},
	{"astro", "astro"},
	{"@sveltejs/kit", "svelte"},
	{"svelte", "svelte"},
	{"vue", "vue"},
	{"react", "react"},
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func extractMajorVersion(version string) string {
	if version == "" {
		return ""
	}

	version = strings.TrimSpace(version)
	version = strings.Split(version, "||")[0]
	version = strings.Split(version, " ")[0]
	version = strings.TrimLeft(version, "^~><>=v ")

	var major strings.Builder
	for _, r := range version {
		if r < '0' || r > '9' {
			break
		}
		major.WriteRune(r)
	}
	return major.String()
}

// DetectFramework inspects package.json in projectRoot. It returns false
// when there is no package.json or none of the known frameworks is listed.
func DetectFramework(projectRoot string) (Framework, bool, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, "package.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Framework{}, false, nil
		}
		return Framework{}, false, err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Framework{}, false, fmt.Errorf("parsing package.json: %w", err)
	}

	for _, candidate := range frameworkPackages {
		version, ok := pkg.Dependencies[candidate.pkg]
		if !ok {
			version, ok = pkg.DevDependencies[candidate.pkg]
		}
		if ok {
			return Framework{Name: candidate.name, Major: extractMajorVersion(version)}, true, nil
		}
	}
	return Framework{}, false, nil
}
