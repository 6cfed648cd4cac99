package errs

import (
	"errors"
	"fmt"
	"testing"
)

type kindedError struct{}

func (kindedError) Error() string { return "kinded" }
func (kindedError) Kind() Kind    { return KindNotFound }

func TestWrapNil(t *testing.T) {
	if Wrap(nil, KindLoadFailure, "") != nil {
		t.Fatal("Wrap(nil) should return nil")
	}
}

func TestKindAndHintThroughWrapping(t *testing.T) {
	base := Newh(KindRemoteAuthMissing, "set the token", "token missing")
	wrapped := fmt.Errorf("pushing schema: %w", base)

	if got := KindOf(wrapped); got != KindRemoteAuthMissing {
		t.Errorf("KindOf = %q, want %q", got, KindRemoteAuthMissing)
	}
	if got := HintOf(wrapped); got != "set the token" {
		t.Errorf("HintOf = %q, want %q", got, "set the token")
	}
	if wrapped.Error() != "pushing schema: token missing" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestHintFromInnerClassification(t *testing.T) {
	inner := Newh(KindNotFound, "run list", "missing")
	outer := Wrap(inner, KindLoadFailure, "")

	if KindOf(outer) != KindLoadFailure {
		t.Errorf("outer kind should win, got %q", KindOf(outer))
	}
	if HintOf(outer) != "run list" {
		t.Errorf("HintOf = %q, want inner hint", HintOf(outer))
	}
}

func TestKindFromTypedError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", kindedError{})
	if !Is(err, KindNotFound) {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindNotFound)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors should be unclassified")
	}
}
