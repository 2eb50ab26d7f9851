package vm

import "github.com/bgpflow/filterlang/types"

// equalValues implements value equality for every scalar Kind the
// comparison operators and `in` can apply to. Lists/records are not
// comparable per the grammar; callers never reach this with those kinds.
func equalValues(a, b types.Value) bool {
	if a.Kind == types.KUnknown || b.Kind == types.KUnknown {
		return false
	}
	switch a.Kind {
	case types.KBool:
		return a.Bool == b.Bool
	case types.KStringLiteral, types.KIPAddr, types.KPrefix, types.KCommunity, types.KOrigin, types.KNextHop:
		return a.Str == b.Str
	case types.KIntegerLiteral, types.KPrefixLength:
		return a.I64 == b.I64
	default:
		return a.U64 == b.U64
	}
}

func compareValues(a, b types.Value) int {
	switch a.Kind {
	case types.KStringLiteral, types.KIPAddr, types.KCommunity:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	case types.KIntegerLiteral, types.KPrefixLength:
		switch {
		case a.I64 < b.I64:
			return -1
		case a.I64 > b.I64:
			return 1
		default:
			return 0
		}
	default:
		switch {
		case a.U64 < b.U64:
			return -1
		case a.U64 > b.U64:
			return 1
		default:
			return 0
		}
	}
}

func inList(v types.Value, list types.Value) bool {
	for _, el := range list.List {
		if equalValues(v, el) {
			return true
		}
	}
	return false
}
