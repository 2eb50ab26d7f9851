package external

import "github.com/bgpflow/filterlang/types"

// Registry is the default Accessors implementation: it routes a LazyRecord
// field path to the matching BMPAccessor/BGPAccessor method by name. Hosts
// embedding this module provide one Registry per decoder, wired at VM
// build time.
type Registry struct {
	BMP BMPAccessor
}

func (r Registry) Access(variant string, body []byte, path []string) (types.Value, error) {
	if len(path) == 0 || r.BMP == nil {
		return types.Unknown, nil
	}
	switch path[0] {
	case "peer_ip":
		if s, ok := r.BMP.PeerIP(body); ok {
			return types.Value{Kind: types.KIPAddr, Str: s}, nil
		}
	case "peer_as":
		if n, ok := r.BMP.PeerAS(body); ok {
			return types.Value{Kind: types.KAsn, U64: uint64(n)}, nil
		}
	case "peer_bgp_id":
		if s, ok := r.BMP.PeerBGPID(body); ok {
			return types.Value{Kind: types.KStringLiteral, Str: s}, nil
		}
	case "peer_rib_type":
		if s, ok := r.BMP.PeerRibType(body); ok {
			return types.Value{Kind: types.KStringLiteral, Str: s}, nil
		}
	case "msg_type":
		if s, ok := r.BMP.MsgType(body); ok {
			return types.Value{Kind: types.KStringLiteral, Str: s}, nil
		}
	case "timestamp":
		if t, ok := r.BMP.Timestamp(body); ok {
			return types.Value{Kind: types.KU32, U64: uint64(t)}, nil
		}
	default:
		return r.accessBGP(body, path)
	}
	return types.Unknown, nil
}

func (r Registry) accessBGP(outer []byte, path []string) (types.Value, error) {
	bgp, body, ok := r.BMP.BGP(outer)
	if !ok {
		return types.Unknown, nil
	}
	switch path[0] {
	case "origin":
		if s, ok := bgp.Origin(body); ok {
			return types.Value{Kind: types.KOrigin, Str: s}, nil
		}
	case "next_hop":
		if s, ok := bgp.NextHop(body); ok {
			return types.Value{Kind: types.KNextHop, Str: s}, nil
		}
	case "local_pref":
		if n, ok := bgp.LocalPref(body); ok {
			return types.Value{Kind: types.KLocalPref, U64: uint64(n)}, nil
		}
	case "multi_exit_disc":
		if n, ok := bgp.MultiExitDisc(body); ok {
			return types.Value{Kind: types.KMultiExitDisc, U64: uint64(n)}, nil
		}
	case "is_atomic_aggregate":
		return types.Value{Kind: types.KBool, Bool: bgp.IsAtomicAggregate(body)}, nil
	case "as_path":
		if hops, ok := bgp.AsPath(body); ok {
			elems := make([]types.Value, len(hops))
			for i, h := range hops {
				elems[i] = types.Value{Kind: types.KAsn, U64: uint64(h)}
			}
			return types.Value{Kind: types.KAsPath, List: elems}, nil
		}
	case "all_communities":
		if cs, ok := bgp.AllCommunities(body); ok {
			elems := make([]types.Value, len(cs))
			for i, c := range cs {
				elems[i] = types.Value{Kind: types.KCommunity, Str: c}
			}
			return types.Value{Kind: types.KList, List: elems}, nil
		}
	}
	return types.Unknown, nil
}
