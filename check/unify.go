package check

import (
	"fmt"

	"github.com/bgpflow/filterlang/types"
)

// subst is the unification-variable pool: a substitution from fresh
// variable id to the type it has been bound to so far. KVar is an
// unconstrained type variable; KIntVar is constrained to numeric
// primitives; KRecordVar carries the row of fields unified against it so
// far and unifies structurally against concrete record types.
type subst struct {
	next int
	bind map[int]*types.Type
}

func newSubst() *subst { return &subst{bind: map[int]*types.Type{}} }

func (s *subst) freshVar() *types.Type {
	s.next++
	return &types.Type{Kind: types.KVar, VarID: s.next}
}

func (s *subst) freshIntVar() *types.Type {
	s.next++
	return &types.Type{Kind: types.KIntVar, VarID: s.next}
}

func (s *subst) freshRecordVar(fields []types.Field) *types.Type {
	s.next++
	return &types.Type{Kind: types.KRecordVar, VarID: s.next, Fields: fields}
}

// resolve follows the substitution chain for a type variable to its
// current binding, or returns t unchanged if it is not a bound variable.
func (s *subst) resolve(t *types.Type) *types.Type {
	for t != nil && (t.Kind == types.KVar || t.Kind == types.KIntVar) {
		bound, ok := s.bind[t.VarID]
		if !ok {
			return t
		}
		t = bound
	}
	return t
}

// Unify unifies a and b, recording new variable bindings as needed.
// Returns an error describing the mismatch on failure.
func (s *subst) Unify(a, b *types.Type) error {
	a, b = s.resolve(a), s.resolve(b)

	if a.Kind == types.KUnknown || b.Kind == types.KUnknown {
		return nil
	}

	switch {
	case a.Kind == types.KVar:
		s.bind[a.VarID] = b
		return nil
	case b.Kind == types.KVar:
		s.bind[b.VarID] = a
		return nil
	case a.Kind == types.KIntVar:
		return s.unifyIntVar(a, b)
	case b.Kind == types.KIntVar:
		return s.unifyIntVar(b, a)
	case a.Kind == types.KRecordVar:
		return s.unifyRecordVar(a, b)
	case b.Kind == types.KRecordVar:
		return s.unifyRecordVar(b, a)
	}

	// Unlike CoercesTo (used at assignment/call sites, where the lattice's
	// one-way "every primitive stringifies" edge is intentional), unifying
	// two already-concrete kinds requires them to be the same kind: this is
	// what makes a membership test against a StringLiteral/IntegerLiteral
	// list a hard type error instead of silently widening to String.
	if a.Kind != b.Kind {
		return fmt.Errorf("cannot unify %v with %v", a, b)
	}

	switch a.Kind {
	case types.KList:
		return s.Unify(a.Elem, b.Elem)
	case types.KRecord, types.KLazyRecord:
		if !a.SameFieldSet(b) {
			return fmt.Errorf("cannot unify record %v with %v: field sets differ", a, b)
		}
		for _, fa := range a.Fields {
			fb, _ := b.FieldByName(fa.Name)
			if err := s.Unify(fa.Type, fb.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *subst) unifyIntVar(v, other *types.Type) error {
	other = s.resolve(other)
	if other.Kind == types.KIntVar {
		// Merge the two int vars: bind one to the other.
		s.bind[v.VarID] = other
		return nil
	}
	if other.Kind == types.KIntegerLiteral || types.IsNumericPrimitive(other.Kind) {
		s.bind[v.VarID] = other
		return nil
	}
	return fmt.Errorf("integer literal cannot unify with %v", other)
}

func (s *subst) unifyRecordVar(v, other *types.Type) error {
	other = s.resolve(other)
	if other.Kind == types.KRecordVar {
		merged := append([]types.Field(nil), v.Fields...)
		for _, of := range other.Fields {
			if _, ok := fieldIn(merged, of.Name); !ok {
				merged = append(merged, of)
			}
		}
		row := types.Anonymous(merged)
		s.bind[v.VarID] = row
		s.bind[other.VarID] = row
		return nil
	}
	if other.Kind != types.KRecord && other.Kind != types.KLazyRecord {
		return fmt.Errorf("cannot unify record row with %v", other)
	}
	for _, rf := range v.Fields {
		of, ok := other.FieldByName(rf.Name)
		if !ok {
			return fmt.Errorf("type %v has no field %q", other, rf.Name)
		}
		if err := s.Unify(rf.Type, of.Type); err != nil {
			return err
		}
	}
	s.bind[v.VarID] = other
	return nil
}

func fieldIn(fields []types.Field, name string) (types.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return types.Field{}, false
}

// Finalize resolves every variable in t to its concrete binding. Unbound
// IntVars default to IntegerLiteral (the literal's inferred type when no
// context constrained it further); unbound plain Vars default to Unknown.
func (s *subst) Finalize(t *types.Type) *types.Type {
	t = s.resolve(t)
	switch t.Kind {
	case types.KVar:
		return types.Simple(types.KUnknown)
	case types.KIntVar:
		return types.Simple(types.KIntegerLiteral)
	case types.KRecordVar:
		fields := make([]types.Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = types.Field{Name: f.Name, Type: s.Finalize(f.Type)}
		}
		return types.Anonymous(fields)
	case types.KList:
		return types.List(s.Finalize(t.Elem))
	default:
		return t
	}
}
