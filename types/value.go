package types

import "fmt"

// Value is the TypeValue sum: a runtime value whose Kind always matches a
// Type produced by the checker. Unknown is the bottom value: it unifies
// with, and compares false against, any typed slot.
type Value struct {
	Kind Kind

	// Scalars. Which field is meaningful is determined by Kind.
	U64  uint64 // U8/U16/U32/Asn/LocalPref/MultiExitDisc/PathId/HexLiteral/IntegerLiteral(resolved)/ConstEnumVariant ordinal
	I64  int64  // IntegerLiteral (unresolved sign-carrying form), PrefixLength
	Bool bool
	Str  string // StringLiteral, IPAddr (textual), Community (canonical text), EnumName for GlobalEnum

	// KList
	List []Value

	// KRecord
	Fields map[string]Value

	// KLazyRecord
	Lazy *LazyRecord

	// KRib/KTable/KOutputStream handles are modeled in the vm/datasource
	// packages, not here; a Value of those kinds never appears on the
	// VM value stack.

	// Shared wraps a reference-counted payload (data-source row, interned
	// string) so the VM's data-source cache can hand out the same backing
	// value to multiple callers without copying it.
	Shared *Shared
}

// Shared is a reference-counted immutable payload, as used for data-source
// rows handed back from Rib.LongestMatch / Table lookups.
type Shared struct {
	refs  int32
	Value Value
}

// NewShared wraps v in a Shared with one reference.
func NewShared(v Value) *Shared { return &Shared{refs: 1, Value: v} }

// Retain increments the reference count and returns the receiver.
func (s *Shared) Retain() *Shared {
	if s != nil {
		s.refs++
	}
	return s
}

// Release decrements the reference count.
func (s *Shared) Release() {
	if s != nil {
		s.refs--
	}
}

// LazyRecord wraps an unparsed byte buffer plus a variant tag; fields are
// materialized on demand via an external accessor (see the external
// package) keyed by (variant tag, field path).
type LazyRecord struct {
	Variant string
	Bytes   []byte
}

// Unknown is the bottom TypeValue.
var Unknown = Value{Kind: KUnknown}

// IsUnknown reports whether v is the bottom value.
func (v Value) IsUnknown() bool { return v.Kind == KUnknown }

// Clone returns a deep copy of v sufficient to give rx/tx mutation its
// required uniquely-owned-value semantics: record field maps and list
// backing slices are copied; Shared payloads are left shared (Retain is
// called) since they are immutable by contract.
func (v Value) Clone() Value {
	out := v
	if v.Fields != nil {
		out.Fields = make(map[string]Value, len(v.Fields))
		for k, fv := range v.Fields {
			out.Fields[k] = fv.Clone()
		}
	}
	if v.List != nil {
		out.List = make([]Value, len(v.List))
		for i, e := range v.List {
			out.List[i] = e.Clone()
		}
	}
	if v.Shared != nil {
		out.Shared = v.Shared.Retain()
	}
	return out
}

// String renders a value for diagnostics and trace logging.
func (v Value) String() string {
	switch v.Kind {
	case KUnknown:
		return "unknown"
	case KBool:
		return fmt.Sprintf("%v", v.Bool)
	case KStringLiteral, KIPAddr, KCommunity:
		return v.Str
	case KIntegerLiteral:
		return fmt.Sprintf("%d", v.I64)
	case KList:
		return fmt.Sprintf("%v", v.List)
	case KRecord:
		return fmt.Sprintf("%v", v.Fields)
	case KLazyRecord:
		return fmt.Sprintf("lazy(%s, %d bytes)", v.Lazy.Variant, len(v.Lazy.Bytes))
	default:
		return fmt.Sprintf("%d", v.U64)
	}
}
