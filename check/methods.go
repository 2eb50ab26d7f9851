package check

import (
	"sort"

	"github.com/bgpflow/filterlang/types"
)

// Arrow is the resolved signature of a method call: the argument types it
// expects (which the call's actual arguments must unify with) and its
// return type.
type Arrow struct {
	Args []*types.Type
	Ret  *types.Type
}

// methodTable is a (receiver kind -> method name -> Arrow) table for
// builtin instance methods on concrete (non-data-source, non-generic)
// receiver types. Static (type-level) methods live in staticMethodTable,
// a separate table per the distilled specification's "static and instance
// methods live in separate tables" rule.
var methodTable = map[types.Kind]map[string]Arrow{
	types.KStringLiteral: {
		"len": {Ret: types.Simple(types.KU32)},
	},
	types.KAsPath: {
		"contains": {Args: []*types.Type{types.Simple(types.KAsn)}, Ret: types.Simple(types.KBool)},
		"len":      {Ret: types.Simple(types.KU32)},
		"origin":   {Ret: types.Simple(types.KAsn)},
	},
	types.KCommunity: {
		"is_transitive": {Ret: types.Simple(types.KBool)},
	},
	types.KPrefix: {
		"len": {Ret: types.Simple(types.KPrefixLength)},
	},
	types.KProvenance: {
		"peer_ip": {Ret: types.Simple(types.KIPAddr)},
	},
}

var staticMethodTable = map[types.Kind]map[string]Arrow{
	types.KAsn: {
		"from_u32": {Args: []*types.Type{types.Simple(types.KU32)}, Ret: types.Simple(types.KAsn)},
	},
}

// dispatchInstance resolves an instance method call against a concrete
// (non-record, non-data-source) receiver type, mirroring "pick the first
// whose declared receiver is a supertype of R" — deterministically. An
// exact match on recv's own kind always wins (it is trivially its own
// supertype and the most specific one); ties among lattice-edge matches
// are broken by a fixed ascending order over types.Kind rather than Go's
// randomized map iteration, so e.g. a Prefix receiver's `.len()` always
// resolves to the same method regardless of the two-method ambiguity
// between KPrefix's own "len" and KStringLiteral's "len" that the
// "every primitive stringifies" lattice edge makes reachable.
func dispatchInstance(recv *types.Type, name string) (Arrow, bool) {
	if methods, ok := methodTable[recv.Kind]; ok {
		if m, ok := methods[name]; ok {
			return m, true
		}
	}

	kinds := make([]types.Kind, 0, len(methodTable))
	for kind := range methodTable {
		if kind == recv.Kind {
			continue
		}
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		declared := types.Simple(kind)
		if !types.CoercesTo(recv, declared) {
			continue
		}
		if m, ok := methodTable[kind][name]; ok {
			return m, true
		}
	}
	return Arrow{}, false
}

// dispatchStatic resolves a type-level (static) method call, e.g.
// `Asn.from_u32(...)`, keyed by the type name used as the call's receiver.
func dispatchStatic(typeName, name string) (Arrow, bool) {
	recv, ok := builtins[typeName]
	if !ok {
		return Arrow{}, false
	}
	methods, ok := staticMethodTable[recv.Kind]
	if !ok {
		return Arrow{}, false
	}
	m, ok := methods[name]
	return m, ok
}
