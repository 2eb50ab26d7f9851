package check_test

import (
	"testing"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/check"
	"github.com/stretchr/testify/require"
)

// TestUndeclaredIdentifierListsVisibleNames checks that the checker's
// undeclared-identifier diagnostic names the in-scope candidates, sorted
// deterministically rather than in map-iteration order.
func TestUndeclaredIdentifierListsVisibleNames(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			m.asn == nope;
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
	prog, err := ast.Parse("undeclared.flt", src)
	require.NoError(t, err)
	env, err := check.NewEnv(prog)
	require.NoError(t, err)
	_, err = check.Check(env, prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), `undeclared identifier "nope"`)
	require.Contains(t, err.Error(), "in scope:")
	require.Contains(t, err.Error(), "m")
}
