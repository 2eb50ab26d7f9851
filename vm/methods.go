package vm

import (
	"net"
	"net/netip"
	"strings"

	"github.com/bgpflow/filterlang/types"
)

// callMethod executes a CallMethod instruction's built-in instance method.
// Type-compatibility was already verified at check time (§4.5); for the
// receiver kinds handled below, failures here are value errors only. A
// method the checker resolves only through the "every primitive
// stringifies" lattice edge (e.g. `len` on an Asn) has no case here and
// fails with ErrInvalidMethodCall. rx is the frame's current rx value, the
// implicit second operand for prefix-match methods (see prefixMatch).
func callMethod(recv types.Value, method string, args []types.Value, rx types.Value) (types.Value, error) {
	switch method {
	case "len":
		switch recv.Kind {
		case types.KStringLiteral:
			return types.Value{Kind: types.KU32, U64: uint64(len(recv.Str))}, nil
		case types.KAsPath:
			return types.Value{Kind: types.KU32, U64: uint64(len(recv.List))}, nil
		case types.KPrefix:
			if p, err := netip.ParsePrefix(recv.Str); err == nil {
				return types.Value{Kind: types.KPrefixLength, I64: int64(p.Bits())}, nil
			}
		}
	case "contains":
		if recv.Kind == types.KAsPath && len(args) == 1 {
			for _, hop := range recv.List {
				if hop.U64 == args[0].U64 {
					return types.Value{Kind: types.KBool, Bool: true}, nil
				}
			}
			return types.Value{Kind: types.KBool, Bool: false}, nil
		}
	case "origin":
		if recv.Kind == types.KAsPath && len(recv.List) > 0 {
			return recv.List[len(recv.List)-1], nil
		}
		return types.Unknown, nil
	case "is_transitive":
		return types.Value{Kind: types.KBool, Bool: !strings.HasPrefix(recv.Str, "65535:")}, nil
	case "peer_ip":
		if v, ok := recv.Fields["peer_ip"]; ok {
			return v, nil
		}
		return types.Unknown, nil
	case "prefix_exact", "prefix_longer", "prefix_orlonger", "prefix_length_range", "prefix_upto", "prefix_netmask":
		return prefixMatch(recv, rx, method, args)
	}
	return types.Value{}, newErr(ErrInvalidMethodCall, "no method %q on %v", method, recv)
}

// callStatic executes a CallStatic (type-level) method, e.g. Asn.from_u32.
func callStatic(typeName, method string, args []types.Value) (types.Value, error) {
	switch {
	case typeName == "Asn" && method == "from_u32" && len(args) == 1:
		return types.Value{Kind: types.KAsn, U64: args[0].U64}, nil
	}
	return types.Value{}, newErr(ErrInvalidMethodCall, "no static method %s.%s", typeName, method)
}

// rxPrefix extracts the candidate prefix a prefix-match Term discriminates
// against: the rx record's own "prefix" field, the field name every
// BGP/BMP route record in this module's scenarios uses for its route prefix
// (S4's record type and the prefix-match tests key it this way).
func rxPrefix(rx types.Value) (netip.Prefix, bool) {
	if rx.Kind != types.KRecord {
		return netip.Prefix{}, false
	}
	v, ok := rx.Fields["prefix"]
	if !ok || v.Kind != types.KPrefix {
		return netip.Prefix{}, false
	}
	p, err := netip.ParsePrefix(v.Str)
	if err != nil {
		return netip.Prefix{}, false
	}
	return p, true
}

// netmaskBits converts a dotted-decimal netmask (e.g. "255.255.0.0") to its
// equivalent prefix length.
func netmaskBits(s string) (int, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	ones, bits := net.IPMask(ip4).Size()
	if bits == 0 {
		return 0, false
	}
	return ones, true
}

// prefixMatch evaluates a prefix-match Term: recv is the literal base
// prefix the DSL source wrote (e.g. `10.0.0.0/8`), and the dynamic operand
// it is matched against is rx's own prefix field (rxPrefix) — the route
// currently being filtered, consistent with how a BGP filter discriminates
// routes. Every variant first requires containment (the candidate falls
// inside recv's network) and then narrows by prefix-length comparison.
func prefixMatch(recv, rx types.Value, method string, args []types.Value) (types.Value, error) {
	base, err := netip.ParsePrefix(recv.Str)
	if err != nil {
		return types.Value{}, newErr(ErrInvalidPayload, "not a prefix: %v", recv)
	}
	cand, ok := rxPrefix(rx)
	if !ok {
		return types.Value{}, newErr(ErrInvalidPayload, "rx has no prefix field to match against")
	}
	contained := base.Contains(cand.Addr()) && cand.Bits() >= base.Bits()

	bv := func(b bool) (types.Value, error) {
		return types.Value{Kind: types.KBool, Bool: b}, nil
	}

	switch method {
	case "prefix_exact":
		return bv(contained && cand.Bits() == base.Bits())
	case "prefix_longer":
		return bv(contained && cand.Bits() > base.Bits())
	case "prefix_orlonger":
		return bv(contained)
	case "prefix_length_range":
		lo, hi := int(args[0].I64), int(args[1].I64)
		return bv(contained && cand.Bits() >= lo && cand.Bits() <= hi)
	case "prefix_upto":
		hi := int(args[0].I64)
		return bv(contained && cand.Bits() <= hi)
	case "prefix_netmask":
		bits, ok := netmaskBits(args[0].Str)
		if !ok {
			return types.Value{}, newErr(ErrInvalidPayload, "invalid netmask %q", args[0].Str)
		}
		return bv(contained && cand.Bits() == bits)
	default:
		return types.Value{}, newErr(ErrInvalidMethodCall, "unknown prefix match method %q", method)
	}
}
