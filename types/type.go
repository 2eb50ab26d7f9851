// Package types defines the TypeDef/TypeValue universe shared across the
// type checker, lowering pass and VM: builtin scalars, list/record
// containers, data-source and enum types, and the TypeValue sum that
// mirrors TypeDef at runtime.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Kind enumerates the tagged variants of TypeDef.
type Kind int

const (
	KUnknown Kind = iota
	KU8
	KU16
	KU32
	KBool
	KIntegerLiteral
	KHexLiteral
	KStringLiteral
	KAsn
	KIPAddr
	KPrefix
	KPrefixLength
	KCommunity
	KAsPath
	KHop
	KOrigin
	KNextHop
	KLocalPref
	KMultiExitDisc
	KAtomicAggregate
	KAggregatorInfo
	KAfiSafi
	KPathId
	KNlriStatus
	KPeerId
	KPeerRibType
	KProvenance
	KRouteContext
	KPrefixRoute
	KFlowSpecRoute

	KList
	KRecord
	KLazyRecord

	KRib
	KTable
	KOutputStream

	KGlobalEnum
	KConstEnumVariant

	KAcceptReject

	// KVar and KIntVar are inference-only: fresh unification variables.
	// They never appear in a fully-checked AST's type map.
	KVar
	KIntVar
	KRecordVar
)

// Field is one named, typed field of a Record. Field lists are always
// stored sorted by Name, so record equality is a flat vector compare and
// FieldByName can locate fields by binary search.
type Field struct {
	Name string
	Type *Type
}

// Type is the tagged sum over the builtin/container/data-source/enum/
// sentinel type universe (TypeDef in the distilled specification).
type Type struct {
	Kind Kind

	// KList
	Elem *Type

	// KRecord, KLazyRecord (Name identifies the LazyRecord's variant tag
	// when Kind == KLazyRecord)
	Name   string
	Fields []Field

	// KRib, KTable, KOutputStream
	Of        *Type
	KeyFields []string // nil means "no declared unique key set" for ribs

	// KGlobalEnum, KConstEnumVariant
	EnumName string

	// KRecordVar: unification-time identity plus the row of fields already
	// observed.
	VarID int
}

// Named constructs a Record type with fields sorted by name.
func Named(name string, fields []Field) *Type {
	sorted := append([]Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Type{Kind: KRecord, Name: name, Fields: sorted}
}

// Anonymous constructs an unnamed Record type with fields sorted by name.
func Anonymous(fields []Field) *Type { return Named("", fields) }

// List constructs a List(elem) type.
func List(elem *Type) *Type { return &Type{Kind: KList, Elem: elem} }

// Simple constructs a type with no payload, e.g. Simple(KAsn).
func Simple(k Kind) *Type { return &Type{Kind: k} }

// FieldByName returns the field with the given name via binary search over
// the sorted field vector, and whether it was found.
func (t *Type) FieldByName(name string) (Field, bool) {
	i := sort.Search(len(t.Fields), func(i int) bool { return t.Fields[i].Name >= name })
	if i < len(t.Fields) && t.Fields[i].Name == name {
		return t.Fields[i], true
	}
	return Field{}, false
}

// SameFieldSet reports whether two record types have identical field-name
// sets. Field lists are pre-sorted, so this is a flat vector compare, as
// required by the sorted-record invariant: record-type equality considers
// field names only, never field types (coercions between overlapping
// field types are checked separately by the evaluator).
func (t *Type) SameFieldSet(other *Type) bool {
	if len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != other.Fields[i].Name {
			return false
		}
	}
	return true
}

// IsSupersetOf reports whether t's field set is a superset of other's
// (every field name in other also appears in t).
func (t *Type) IsSupersetOf(other *Type) bool {
	for _, f := range other.Fields {
		if _, ok := t.FieldByName(f.Name); !ok {
			return false
		}
	}
	return true
}

// String renders a human-readable type name for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KUnknown:
		return "Unknown"
	case KU8:
		return "U8"
	case KU16:
		return "U16"
	case KU32:
		return "U32"
	case KBool:
		return "Bool"
	case KIntegerLiteral:
		return "IntegerLiteral"
	case KHexLiteral:
		return "HexLiteral"
	case KStringLiteral:
		return "StringLiteral"
	case KAsn:
		return "Asn"
	case KIPAddr:
		return "IpAddr"
	case KPrefix:
		return "Prefix"
	case KPrefixLength:
		return "PrefixLength"
	case KCommunity:
		return "Community"
	case KAsPath:
		return "AsPath"
	case KHop:
		return "Hop"
	case KOrigin:
		return "Origin"
	case KNextHop:
		return "NextHop"
	case KLocalPref:
		return "LocalPref"
	case KMultiExitDisc:
		return "MultiExitDisc"
	case KAtomicAggregate:
		return "AtomicAggregate"
	case KAggregatorInfo:
		return "AggregatorInfo"
	case KAfiSafi:
		return "AfiSafi"
	case KPathId:
		return "PathId"
	case KNlriStatus:
		return "NlriStatus"
	case KPeerId:
		return "PeerId"
	case KPeerRibType:
		return "PeerRibType"
	case KProvenance:
		return "Provenance"
	case KRouteContext:
		return "RouteContext"
	case KPrefixRoute:
		return "PrefixRoute"
	case KFlowSpecRoute:
		return "FlowSpecRoute"
	case KList:
		return fmt.Sprintf("List(%v)", t.Elem)
	case KRecord:
		var b strings.Builder
		if t.Name != "" {
			b.WriteString(t.Name)
			b.WriteByte(' ')
		}
		b.WriteByte('{')
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", f.Name, f.Type)
		}
		b.WriteByte('}')
		return b.String()
	case KLazyRecord:
		return fmt.Sprintf("LazyRecord(%s)", t.Name)
	case KRib:
		return fmt.Sprintf("Rib(%v)", t.Of)
	case KTable:
		return fmt.Sprintf("Table(%v)", t.Of)
	case KOutputStream:
		return fmt.Sprintf("OutputStream(%v)", t.Of)
	case KGlobalEnum:
		return fmt.Sprintf("Enum(%s)", t.EnumName)
	case KConstEnumVariant:
		return fmt.Sprintf("ConstEnumVariant(%s)", t.EnumName)
	case KAcceptReject:
		return "AcceptReject"
	case KVar:
		return fmt.Sprintf("'t%d", t.VarID)
	case KIntVar:
		return fmt.Sprintf("'int%d", t.VarID)
	case KRecordVar:
		return fmt.Sprintf("'row%d%v", t.VarID, t.Fields)
	default:
		return "?"
	}
}

// IsNumericPrimitive reports whether k is one of the concrete numeric
// primitive kinds that an IntegerLiteral/HexLiteral unification variable
// may resolve to.
func IsNumericPrimitive(k Kind) bool {
	switch k {
	case KU8, KU16, KU32, KPrefixLength, KLocalPref, KAsn, KMultiExitDisc, KPathId:
		return true
	}
	return false
}
