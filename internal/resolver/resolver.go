// Package resolver tracks which packages one install run has processed.
package resolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/bloktastic/bloktastic/internal/errs"
)

type state uint8

const (
	unvisited state = iota
	inProgress
	done
)

// CycleError indicates a package that depends on itself through its
// dependency chain.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " → "))
}

func (e *CycleError) Kind() errs.Kind {
	return errs.KindInvalidArgument
}

// Session is the install set of a single run. A name is in progress from
// Enter until Done, and done afterwards.
type Session struct {
	ID string

	states map[string]state
	path   []string
	order  []string
}

// NewSession creates an empty session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:     uuid.New().String(),
		states: make(map[string]state),
	}
}

// Enter starts processing name. It returns false when name is already done,
// and a CycleError when name is still in progress further up the chain.
func (s *Session) Enter(name string) (bool, error) {
	switch s.states[name] {
	case done:
		return false, nil
	case inProgress:
		start := slices.Index(s.path, name)
		cycle := make([]string, 0, len(s.path)-start+1)
		cycle = append(cycle, s.path[start:]...)
		cycle = append(cycle, name)
		return false, &CycleError{Cycle: cycle}
	}
	s.states[name] = inProgress
	s.path = append(s.path, name)
	return true, nil
}

// Done marks name as installed for the rest of the session.
func (s *Session) Done(name string) {
	if s.states[name] == done {
		return
	}
	s.states[name] = done
	s.order = append(s.order, name)
	if i := slices.Index(s.path, name); i >= 0 {
		s.path = slices.Delete(s.path, i, i+1)
	}
}

// Finished reports whether name is done.
func (s *Session) Finished(name string) bool {
	return s.states[name] == done
}

// Installed returns the done names in completion order.
func (s *Session) Installed() []string {
	return slices.Clone(s.order)
}
