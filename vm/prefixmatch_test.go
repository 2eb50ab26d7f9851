package vm_test

import (
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/types"
	"github.com/bgpflow/filterlang/vm"
	"github.com/stretchr/testify/require"
)

// TestPrefixMatchOrLonger checks that `orlonger` discriminates routes by
// containment and length against rx's own prefix field, instead of being a
// compile-time constant.
func TestPrefixMatchOrLonger(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			10.0.0.0/8 orlonger;
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
	prefix: Prefix
}
`
	prog, err := compiler.CompileSource("prefix_orlonger.flt", src)
	require.NoError(t, err)
	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	inside, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "10.1.0.0/16"},
	}}, types.Value{})
	require.NoError(t, err)
	require.True(t, inside.Accept, "10.1.0.0/16 is contained in and longer than 10.0.0.0/8")

	outside, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "11.0.0.0/8"},
	}}, types.Value{})
	require.NoError(t, err)
	require.False(t, outside.Accept, "11.0.0.0/8 is not contained in 10.0.0.0/8")
}

// TestPrefixMatchExact checks `exact` requires both containment and an
// identical prefix length.
func TestPrefixMatchExact(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			10.0.0.0/8 exact;
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
	prefix: Prefix
}
`
	prog, err := compiler.CompileSource("prefix_exact.flt", src)
	require.NoError(t, err)
	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	exact, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "10.0.0.0/8"},
	}}, types.Value{})
	require.NoError(t, err)
	require.True(t, exact.Accept)

	longer, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "10.1.0.0/16"},
	}}, types.Value{})
	require.NoError(t, err)
	require.False(t, longer.Accept, "exact must reject a more specific route")
}

// TestPrefixMatchNetmask checks that the netmask argument lowering actually
// feeds into the length comparison instead of being discarded.
func TestPrefixMatchNetmask(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			10.0.0.0/8 netmask 255.255.0.0;
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
	prefix: Prefix
}
`
	prog, err := compiler.CompileSource("prefix_netmask.flt", src)
	require.NoError(t, err)
	unit := prog.Units["f"]
	v, err := vm.Build(unit)
	require.NoError(t, err)

	matches, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "10.1.0.0/16"},
	}}, types.Value{})
	require.NoError(t, err)
	require.True(t, matches.Accept, "255.255.0.0 is a /16 netmask")

	mismatch, err := v.Exec(types.Value{Kind: types.KRecord, Fields: map[string]types.Value{
		"prefix": {Kind: types.KPrefix, Str: "10.1.0.0/24"},
	}}, types.Value{})
	require.NoError(t, err)
	require.False(t, mismatch.Accept, "10.1.0.0/24 is not a /16")
}
