package ast_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/bgpflow/filterlang/ast"
	"github.com/stretchr/testify/require"
)

// TestSpanRoundTrip checks Testable Property 1: concatenating every span
// recorded during a parse, sorted by Start, reconstructs the source modulo
// whitespace/comment runs between tokens.
func TestSpanRoundTrip(t *testing.T) {
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
	prog, err := ast.Parse("roundtrip.flt", src)
	require.NoError(t, err)
	require.Positive(t, prog.Spans.Len())

	spans := make([]ast.Span, prog.Spans.Len())
	for i := range spans {
		spans[i] = prog.Spans.Get(ast.MetaId(i))
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var reconstructed strings.Builder
	for _, sp := range spans {
		require.LessOrEqual(t, sp.Start, sp.End)
		require.LessOrEqual(t, sp.End, len(src))
		reconstructed.WriteString(src[sp.Start:sp.End])
		reconstructed.WriteByte(' ')
	}

	stripWS := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	require.Equal(t, stripWS(src), stripWS(reconstructed.String()))
}
