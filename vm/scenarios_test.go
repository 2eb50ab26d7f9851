package vm_test

import (
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/external"
	"github.com/bgpflow/filterlang/types"
	"github.com/bgpflow/filterlang/vm"
	"github.com/stretchr/testify/require"
)

// fakeBMP is a minimal external.BMPAccessor test double: PeerAS resolves
// for any bytes, everything else is unimplemented since S6 only exercises
// the variant-dispatch path.
type fakeBMP struct{}

func (fakeBMP) MsgType(body []byte) (string, bool)    { return "", false }
func (fakeBMP) PeerIP(body []byte) (string, bool)     { return "", false }
func (fakeBMP) PeerAS(body []byte) (uint32, bool)      { return 65001, true }
func (fakeBMP) PeerBGPID(body []byte) (string, bool)  { return "", false }
func (fakeBMP) PeerRibType(body []byte) (string, bool) { return "", false }
func (fakeBMP) Timestamp(body []byte) (int64, bool)   { return 0, false }
func (fakeBMP) BGP(body []byte) (external.BGPAccessor, []byte, bool) {
	return nil, nil, false
}

// S1: ASN equality accepts when rx.asn matches the compared literal.
func TestScenarioS1ASNEquality(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			m.asn == AS65534;
		}
	}
	apply {
		filter match t matching {
			return accept;
		};
		return reject;
	}
}
type R {
	asn: Asn
}
`
	prog, err := compiler.CompileSource("s1.flt", src)
	require.NoError(t, err)

	unit := prog.Units["f"]
	require.NotNil(t, unit)

	v, err := vm.Build(unit)
	require.NoError(t, err)

	rx := types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"asn": {Kind: types.KAsn, U64: 65534},
	}}
	res, err := v.Exec(rx, types.Value{})
	require.NoError(t, err)
	require.True(t, res.Accept)
}

// S2: integer membership in a literal list rejects when the value is a
// member.
func TestScenarioS2IntegerMembership(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			100 in [2, 3, 4, 100];
		}
	}
	apply {
		filter match t matching {
			return reject;
		};
		return accept;
	}
}
type R {
	asn: Asn
}
`
	prog, err := compiler.CompileSource("s2.flt", src)
	require.NoError(t, err)

	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	rx := types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"asn": {Kind: types.KAsn, U64: 1},
	}}
	res, err := v.Exec(rx, types.Value{})
	require.NoError(t, err)
	require.False(t, res.Accept)
}

// S3: comparing a string literal against an all-integer list is a type
// error, not a silent widening to String.
func TestScenarioS3StringInIntListIsTypeError(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			"x" in [1, 2, 3];
		}
	}
	apply {
		filter match t matching {
			return accept;
		};
		return reject;
	}
}
type R {
	asn: Asn
}
`
	_, err := compiler.CompileSource("s3.flt", src)
	require.Error(t, err)
}

// S4: an anonymous record literal sent to an output stream emits exactly
// one message whose body carries the declared fields.
func TestScenarioS4OutputStreamEmission(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx route: R;
	}
	term always {
		match {
			true;
		}
	}
	action emit_route {
		mqtt.send({ prefix: route.prefix, peer_ip: route.peer_ip });
	}
	apply {
		filter match always matching {
			emit_route;
			return accept;
		};
		return reject;
	}
}
type R {
	prefix: Prefix,
	peer_ip: IpAddr
}
output-stream mqtt contains Message {
	prefix: Prefix,
	peer_ip: IpAddr
}
`
	prog, err := compiler.CompileSource("s4.flt", src)
	require.NoError(t, err)

	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	rx := types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix":   {Kind: types.KPrefix, Str: "192.0.2.0/24"},
		"peer_ip":  {Kind: types.KIPAddr, Str: "198.51.100.1"},
	}}
	res, err := v.Exec(rx, types.Value{})
	require.NoError(t, err)
	require.True(t, res.Accept)
	require.Len(t, res.Messages, 1)

	msg := res.Messages[0]
	require.Equal(t, "mqtt", msg.Stream)
	require.Equal(t, "192.0.2.0/24", msg.Body.Fields["prefix"].Str)
	require.Equal(t, "198.51.100.1", msg.Body.Fields["peer_ip"].Str)
}

// S5: a typed record literal missing a declared field is a type error.
func TestScenarioS5MissingFieldOnTypedRecordLiteral(t *testing.T) {
	src := `
type Message {
	prefix: Prefix,
	peer_ip: IpAddr
}
output-stream mqtt contains Message {
	prefix: Prefix,
	peer_ip: IpAddr
}
filter-map f {
	define {
		rx_tx m: R;
	}
	term always {
		match {
			true;
		}
	}
	action build_msg {
		mqtt.send(Message { prefix: m.prefix });
	}
	apply {
		filter match always matching {
			build_msg;
			return accept;
		};
		return reject;
	}
}
type R {
	prefix: Prefix,
	peer_ip: IpAddr
}
`
	_, err := compiler.CompileSource("s5.flt", src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "peer_ip")
}

// S6: a byte-backed lazy record dispatches field access by runtime variant
// tag; a mismatched tag yields Unknown instead of an error, which the VM
// treats as falsy.
func TestScenarioS6LazyRecordVariantDispatch(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx msg: RouteMonitoring;
	}
	term is_peer {
		match {
			msg.peer_as == AS65001;
		}
	}
	apply {
		filter match is_peer matching {
			return accept;
		};
		return reject;
	}
}
`
	prog, err := compiler.CompileSource("s6.flt", src)
	require.NoError(t, err)

	unit := prog.Units["f"]
	v, err := vm.Build(unit, vm.WithAccessors(external.Registry{BMP: fakeBMP{}}))
	require.NoError(t, err)

	matching := types.Value{Kind: types.KLazyRecord, Lazy: &types.LazyRecord{
		Variant: "RouteMonitoring", Bytes: []byte{0x01, 0x02},
	}}
	res, err := v.Exec(matching, types.Value{})
	require.NoError(t, err)
	require.True(t, res.Accept)

	mismatched := types.Value{Kind: types.KLazyRecord, Lazy: &types.LazyRecord{
		Variant: "PeerUp", Bytes: []byte{0x01, 0x02},
	}}
	res, err = v.Exec(mismatched, types.Value{})
	require.NoError(t, err)
	require.False(t, res.Accept)
}
