package vm_test

import (
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/types"
	"github.com/bgpflow/filterlang/vm"
	"github.com/stretchr/testify/require"
)

// TestVMDeterminism checks Testable Property 6: executing the same unit
// against the same (rx, tx, args, data sources) twice yields byte-identical
// results.
func TestVMDeterminism(t *testing.T) {
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
	prog, err := compiler.CompileSource("determinism.flt", src)
	require.NoError(t, err)

	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	rx := types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix":  {Kind: types.KPrefix, Str: "203.0.113.0/24"},
		"peer_ip": {Kind: types.KIPAddr, Str: "203.0.113.1"},
	}}

	first, err := v.Exec(rx, types.Value{})
	require.NoError(t, err)
	second, err := v.Exec(rx, types.Value{})
	require.NoError(t, err)

	require.Equal(t, first.Accept, second.Accept)
	require.Equal(t, first.Rx, second.Rx)
	require.Equal(t, first.Tx, second.Tx)
	require.Equal(t, first.Messages, second.Messages)
}
