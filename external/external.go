// Package external models the byte-parser accessor contract LazyRecord
// field access dispatches into. Decoding BGP/BMP wire bytes is explicitly
// out of scope for this module (§6 Non-goals); only the accessor interfaces
// a host embedding this module must implement are declared here.
package external

import "github.com/bgpflow/filterlang/types"

// Accessors resolves one (variant, field-path) pair against a raw
// byte-backed message body. Implementations own the actual BGP/BMP wire
// decoding; the VM only ever calls through this interface.
type Accessors interface {
	Access(variant string, body []byte, path []string) (types.Value, error)
}

// BGPAccessor exposes the field accessors a BgpUpdate-variant LazyRecord's
// field chain may resolve to: origin, as-path, next-hop, the optional
// attributes, and the NLRI/withdrawal prefix lists.
type BGPAccessor interface {
	Origin(body []byte) (string, bool)
	AsPath(body []byte) ([]uint32, bool)
	NextHop(body []byte) (string, bool)
	MultiExitDisc(body []byte) (uint32, bool)
	LocalPref(body []byte) (uint32, bool)
	IsAtomicAggregate(body []byte) bool
	Aggregator(body []byte) (asn uint32, addr string, ok bool)
	AllCommunities(body []byte) ([]string, bool)
	Nlris(body []byte) ([]string, bool)
	Withdrawals(body []byte) ([]string, bool)
	PathAttributes(body []byte) (map[string]string, bool)
}

// BMPAccessor exposes the common BMP header fields shared by every message
// variant (RouteMonitoring, PeerUp, PeerDown, StatisticsReport, Initiation,
// Termination) plus access to the embedded BGP UPDATE, when present.
type BMPAccessor interface {
	MsgType(body []byte) (string, bool)
	PeerIP(body []byte) (string, bool)
	PeerAS(body []byte) (uint32, bool)
	PeerBGPID(body []byte) (string, bool)
	PeerRibType(body []byte) (string, bool)
	Timestamp(body []byte) (int64, bool)
	BGP(body []byte) (BGPAccessor, []byte, bool)
}
