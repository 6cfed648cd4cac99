package registry

import (
	"slices"
	"strings"
)

// SearchOptions narrow a search. Zero values mean no filter.
type SearchOptions struct {
	Kind     Kind
	Category string
	Tag      string
}

func (d *Data) entries(kind Kind) []Entry {
	switch kind {
	case KindComponent:
		return d.Packages.Components
	case KindPlugin:
		return d.Packages.Plugins
	case KindPreset:
		return d.Packages.Presets
	}
	return nil
}

// Find returns the package named name, scanning components, plugins and
// presets in that order.
func (d *Data) Find(name string) (Package, bool) {
	for _, kind := range Kinds {
		for _, e := range d.entries(kind) {
			if e.Name == name {
				return Package{Entry: e, Kind: kind}, true
			}
		}
	}
	return Package{}, false
}

// All returns the packages of kind, or of every kind when kind is zero, in
// registry order.
func (d *Data) All(kind Kind) []Package {
	var list []Package
	for _, k := range Kinds {
		if kind != 0 && kind != k {
			continue
		}
		for _, e := range d.entries(k) {
			list = append(list, Package{Entry: e, Kind: k})
		}
	}
	return list
}

// Search matches query case-insensitively against name, title and tags,
// then applies the exact category and tag filters. Registry order is kept.
func (d *Data) Search(query string, opts SearchOptions) []Package {
	q := strings.ToLower(query)

	var matches []Package
	for _, pkg := range d.All(opts.Kind) {
		if !matchesQuery(pkg.Entry, q) {
			continue
		}
		if opts.Category != "" && (pkg.Category == nil || *pkg.Category != opts.Category) {
			continue
		}
		if opts.Tag != "" && !slices.Contains(pkg.Tags, opts.Tag) {
			continue
		}
		matches = append(matches, pkg)
	}
	return matches
}

func matchesQuery(e Entry, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Title), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
