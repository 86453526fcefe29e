// Package scope describes one watched root as seen by the engine.
package scope

import (
	"path/filepath"

	"go.trai.ch/filesentry/internal/core/domain"
	"go.trai.ch/filesentry/internal/core/ports"
)

// Sink receives raw per-path changes detected for a scope.
type Sink interface {
	Record(path string, kind domain.EventKind)
}

// Router learns about watch handles as soon as they are registered.
type Router interface {
	Claim(id domain.ScopeID, h domain.Handle)
	Forget(h domain.Handle)
}

// Scope is the runtime state shared by the components serving one root.
type Scope struct {
	ID        domain.ScopeID
	Root      string
	Recursive bool
	Filter    ports.Filter
	Sink      Sink
	Router    Router
}

// Claim announces a handle registered on behalf of the scope.
func (s *Scope) Claim(h domain.Handle) {
	if s.Router != nil {
		s.Router.Claim(s.ID, h)
	}
}

// Forget withdraws a handle that is released before being published.
func (s *Scope) Forget(h domain.Handle) {
	if s.Router != nil {
		s.Router.Forget(h)
	}
}

// Ignored reports whether path should be left out of the scope.
// The root itself is never ignored.
func (s *Scope) Ignored(path string, isDir bool) bool {
	if s.Filter == nil || path == s.Root {
		return false
	}
	return s.Filter.Ignore(path, isDir)
}

// Tracked reports whether entries directly under dir belong to the scope.
// Non-recursive scopes only track the root's direct children.
func (s *Scope) Tracked(dir string) bool {
	if s.Recursive {
		return true
	}
	return filepath.Clean(dir) == s.Root
}
