package types

// edges enumerates the unidirectional primitive-to-primitive conversion
// lattice from the distilled specification §4.3. It governs implicit
// coercions at call sites and assignments. Record coercion is structural
// and handled separately by CoercesTo.
var edges = map[Kind][]Kind{
	KU8:  {KU16, KU32, KPrefixLength, KAsn, KIntegerLiteral, KStringLiteral},
	KU16: {KU32, KPrefixLength, KAsn, KIntegerLiteral, KLocalPref, KStringLiteral},
	KU32: {KAsn, KIntegerLiteral, KStringLiteral},
	KIntegerLiteral: {
		KU8, KU16, KU32, KPrefixLength, KLocalPref, KAsn, KConstEnumVariant, KStringLiteral,
	},
	KHexLiteral: {KU8, KU32, KCommunity, KStringLiteral},
}

// primitiveKinds lists every Kind that unconditionally coerces to
// StringLiteral ("every primitive -> StringLiteral").
var primitiveKinds = []Kind{
	KU8, KU16, KU32, KBool, KAsn, KIPAddr, KPrefix, KPrefixLength, KCommunity,
	KAsPath, KHop, KOrigin, KNextHop, KLocalPref, KMultiExitDisc, KAtomicAggregate,
	KAggregatorInfo, KAfiSafi, KPathId, KNlriStatus, KPeerId, KPeerRibType,
	KProvenance, KRouteContext, KPrefixRoute, KFlowSpecRoute,
}

func init() {
	for _, k := range primitiveKinds {
		if k == KStringLiteral {
			continue
		}
		edges[k] = append(edges[k], KStringLiteral)
	}
}

// CoercesTo reports whether a value of type from may be implicitly used
// where a value of type to is expected, per the conversion lattice.
// Refinement checks (e.g. whether an IntegerLiteral's concrete value fits
// the target) are NOT performed here; they happen at lowering time on
// literal values, per the distilled specification.
func CoercesTo(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from.Kind == KUnknown || to.Kind == KUnknown {
		return true
	}
	if from.Kind == to.Kind {
		switch from.Kind {
		case KRecord, KLazyRecord:
			// fall through to structural check below
		case KList:
			return CoercesTo(from.Elem, to.Elem)
		default:
			return true
		}
	}

	if (from.Kind == KRecord || from.Kind == KLazyRecord) &&
		(to.Kind == KRecord || to.Kind == KOutputStream) {
		return recordCoercesTo(from, targetRecord(to))
	}

	for _, dst := range edges[from.Kind] {
		if dst == to.Kind {
			return true
		}
	}
	return false
}

func targetRecord(to *Type) *Type {
	if to.Kind == KOutputStream {
		return to.Of
	}
	return to
}

// recordCoercesTo implements "Record -> Record coercion succeeds iff field
// names match by set (equal or target-is-superset) and each overlapping
// field's source type coerces to the target's".
func recordCoercesTo(from, to *Type) bool {
	if to == nil {
		return false
	}
	if !to.IsSupersetOf(from) && !from.SameFieldSet(to) {
		return false
	}
	for _, tf := range to.Fields {
		sf, ok := from.FieldByName(tf.Name)
		if !ok {
			continue // target-is-superset case: field absent from source
		}
		if !CoercesTo(sf.Type, tf.Type) {
			return false
		}
	}
	return true
}

// AcyclicTransitiveClosure verifies that the declared edges, closed
// transitively, contain no cycle other than self-loops (Testable
// Property 4). It returns the offending cycle (as a slice of Kinds) if one
// is found, or nil if the lattice is acyclic.
func AcyclicTransitiveClosure() []Kind {
	const white, gray, black = 0, 1, 2
	color := map[Kind]int{}
	var path []Kind
	var cycle []Kind

	var visit func(k Kind) bool
	visit = func(k Kind) bool {
		color[k] = gray
		path = append(path, k)
		for _, next := range edges[k] {
			if next == k {
				continue // reflexivity is allowed
			}
			switch color[next] {
			case gray:
				// Found a cycle; extract it from path.
				for i, p := range path {
					if p == next {
						cycle = append([]Kind(nil), path[i:]...)
						cycle = append(cycle, next)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[k] = black
		return false
	}

	for k := range edges {
		if color[k] == white {
			if visit(k) {
				return cycle
			}
		}
	}
	return nil
}
