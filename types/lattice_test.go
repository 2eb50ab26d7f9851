package types_test

import (
	"testing"

	"github.com/bgpflow/filterlang/types"
	"github.com/stretchr/testify/require"
)

// TestCoercionLatticeAcyclic checks Testable Property 4: the declared
// conversion lattice, closed transitively, contains no cycle other than
// self-loops.
func TestCoercionLatticeAcyclic(t *testing.T) {
	cycle := types.AcyclicTransitiveClosure()
	require.Nil(t, cycle, "found a coercion cycle: %v", cycle)
}
