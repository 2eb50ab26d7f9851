package symbols

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// binding is what a scope remembers about one name: the token it resolves
// to and the entity kind, for duplicate-binding diagnostics.
type binding struct {
	token Token
}

// Scope is one level of a linked-list scope stack. Lookup recurses into
// the parent. Inserting an already-bound name in the same scope is an
// error (per the distilled specification's type-checker scope rules).
type Scope struct {
	parent *Scope
	names  map[string]binding
}

// NewScope creates a root scope with no parent.
func NewScope() *Scope {
	return &Scope{names: map[string]binding{}}
}

// Push creates a child scope of s.
func (s *Scope) Push() *Scope {
	return &Scope{parent: s, names: map[string]binding{}}
}

// Declare binds name to tok in this scope. Returns an error if name is
// already bound in this exact scope (shadowing an outer scope is allowed).
func (s *Scope) Declare(name string, tok Token) error {
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("duplicate binding for %q in the same scope", name)
	}
	s.names[name] = binding{token: tok}
	return nil
}

// Lookup resolves name in this scope or any ancestor, returning the token
// and whether it was found.
func (s *Scope) Lookup(name string) (Token, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b.token, true
		}
	}
	return Token{}, false
}

// VisibleNames returns every name bound in s or an ancestor scope, sorted
// for deterministic diagnostics (an undeclared-identifier error lists
// candidates in the same order on every run, not in map-iteration order).
func (s *Scope) VisibleNames() []string {
	seen := map[string]struct{}{}
	for cur := s; cur != nil; cur = cur.parent {
		for _, name := range maps.Keys(cur.names) {
			seen[name] = struct{}{}
		}
	}
	names := maps.Keys(seen)
	sort.Strings(names)
	return names
}
