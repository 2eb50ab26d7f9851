package check

import (
	"testing"

	"github.com/bgpflow/filterlang/types"
	"github.com/stretchr/testify/require"
)

// TestDispatchInstancePrefersExactKind checks that a Prefix receiver's
// `.len()` always resolves to Prefix's own method (PrefixLength) rather
// than non-deterministically picking up String's `.len()` (U32) through
// the "every primitive stringifies" lattice edge.
func TestDispatchInstancePrefersExactKind(t *testing.T) {
	recv := types.Simple(types.KPrefix)
	for i := 0; i < 50; i++ {
		arrow, ok := dispatchInstance(recv, "len")
		require.True(t, ok)
		require.Equal(t, types.KPrefixLength, arrow.Ret.Kind)
	}
}

// TestDispatchInstanceDeterministicAcrossCalls checks that repeated lookups
// for a method with no exact-kind match (only reachable through a lattice
// edge) return the same candidate every time.
func TestDispatchInstanceDeterministicAcrossCalls(t *testing.T) {
	recv := types.Simple(types.KAsn)
	first, ok := dispatchInstance(recv, "len")
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		again, ok := dispatchInstance(recv, "len")
		require.True(t, ok)
		require.Equal(t, first.Ret.Kind, again.Ret.Kind)
	}
}
