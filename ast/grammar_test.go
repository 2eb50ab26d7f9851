package ast_test

import (
	"testing"

	"github.com/bgpflow/filterlang/ast"
	"github.com/stretchr/testify/require"
)

// TestIdentifierBaseRejectsPrefixMatchTail checks that a PrefixMatchTail
// only attaches to a Literal base, not an Identifier one: the grammar is
// Literal (PrefixMatchTail | AccessExpr), not Identifier (PrefixMatchTail |
// AccessExpr). `m exact` should fail to parse instead of silently building
// a PrefixMatchExpr over a var reference.
func TestIdentifierBaseRejectsPrefixMatchTail(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			m exact;
		}
	}
	apply {
		return accept;
	}
}
type R {
	prefix: Prefix
}
`
	_, err := ast.Parse("identtail.flt", src)
	require.Error(t, err)
}

// TestLiteralBaseAcceptsPrefixMatchTail is the positive counterpart: a
// Literal base still parses a trailing PrefixMatchTail normally.
func TestLiteralBaseAcceptsPrefixMatchTail(t *testing.T) {
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
		return accept;
	}
}
type R {
	prefix: Prefix
}
`
	prog, err := ast.Parse("littail.flt", src)
	require.NoError(t, err)
	require.NotNil(t, prog)
}
