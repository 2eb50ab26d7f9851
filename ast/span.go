// Package ast defines the lexer, recursive-descent parser and typed AST for
// the filter-map language, plus the MetaId/Span source-coordinate machinery
// shared by every later pipeline stage.
package ast

import "fmt"

// Span is a half-open byte range [Start, End) in a named source file.
type Span struct {
	File  string
	Start int
	End   int
}

// String renders a span as "file:start-end" for diagnostics.
func (s Span) String() string {
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

// MetaId is a stable identifier assigned to every AST node at parse time.
// It is the only handle later stages use to recover a node's source
// location; AST nodes never carry a Span directly.
type MetaId uint32

// Spans maps MetaId to Span for one compile unit. It is built incrementally
// by the parser and is otherwise immutable once parsing finishes.
type Spans struct {
	byID []Span
}

// New allocates a fresh MetaId bound to span and returns it.
func (s *Spans) New(span Span) MetaId {
	id := MetaId(len(s.byID))
	s.byID = append(s.byID, span)
	return id
}

// Get resolves a MetaId to its Span. Panics if id was never allocated by
// this table, which would indicate a bug in the parser.
func (s *Spans) Get(id MetaId) Span {
	return s.byID[id]
}

// Len returns the number of spans recorded, i.e. one past the highest
// MetaId issued.
func (s *Spans) Len() int { return len(s.byID) }
