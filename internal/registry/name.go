package registry

import (
	"regexp"
	"strings"

	"github.com/bloktastic/bloktastic/internal/errs"
)

var namePattern = regexp.MustCompile(`^@([a-z0-9-]+)/([a-z0-9-]+)$`)

// ParseName splits "@namespace/name" into its parts.
func ParseName(name string) (namespace, pkg string, err error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", errs.Newh(errs.KindInvalidArgument,
			"Package names look like @bloktastic/hero-slider",
			"invalid package name %q", name)
	}
	return m[1], m[2], nil
}

// FormatName joins a namespace and a package name. A leading @ on the
// namespace is tolerated.
func FormatName(namespace, pkg string) string {
	return "@" + strings.TrimPrefix(namespace, "@") + "/" + pkg
}

// ShortName returns the part after the slash, or name itself.
func ShortName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
