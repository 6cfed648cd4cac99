// Package errs classifies failures so the CLI can report them uniformly.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidArgument      Kind = "invalid_argument"
	KindNotFound             Kind = "not_found"
	KindLoadFailure          Kind = "load_failure"
	KindValidationFailure    Kind = "validation_failure"
	KindRemoteAuthMissing    Kind = "remote_auth_missing"
	KindRemoteRequestFailure Kind = "remote_request_failure"
	KindUnknownPackageType   Kind = "unknown_package_type"
)

type classifiedError struct {
	kind  Kind
	hint  string
	cause error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return string(e.kind)
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

// Wrap attaches a kind and an optional remediation hint to cause.
func Wrap(cause error, kind Kind, hint string) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{kind: kind, hint: hint, cause: cause}
}

// New creates a classified error from a format string.
func New(kind Kind, format string, args ...any) error {
	return &classifiedError{kind: kind, cause: fmt.Errorf(format, args...)}
}

// Newh is New with a hint.
func Newh(kind Kind, hint, format string, args ...any) error {
	return &classifiedError{kind: kind, hint: hint, cause: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost classification in err's chain, or "".
func KindOf(err error) Kind {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.kind
	}
	var kinded interface{ Kind() Kind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return ""
}

// HintOf returns the first non-empty hint in err's chain.
func HintOf(err error) string {
	for err != nil {
		var classified *classifiedError
		if !errors.As(err, &classified) {
			return ""
		}
		if classified.hint != "" {
			return classified.hint
		}
		err = classified.cause
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
