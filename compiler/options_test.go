package compiler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/diagnostics"
	"github.com/stretchr/testify/require"
)

// TestWithDiagnosticsVerboseReturnsReport checks that a lexer failure comes
// back as a diagnostics.Report, carrying a span, when the caller opts in.
func TestWithDiagnosticsVerboseReturnsReport(t *testing.T) {
	src := `filter-map f { define { rx_tx m: R; } term t { match { true; } } apply { return accept; } }` + "\n\"unterminated"

	_, err := compiler.CompileSource("verbose.flt", src, compiler.WithDiagnosticsVerbose(true))
	require.Error(t, err)

	var report diagnostics.Report
	require.True(t, errors.As(err, &report))
	require.Equal(t, diagnostics.SeverityError, report.Severity)
}

// TestWithoutDiagnosticsVerboseReturnsPlainError checks the default path is
// unchanged: a plain wrapped error, not a diagnostics.Report.
func TestWithoutDiagnosticsVerboseReturnsPlainError(t *testing.T) {
	src := `filter-map f { define { rx_tx m: R; } term t { match { true; } } apply { return accept; } }` + "\n\"unterminated"

	_, err := compiler.CompileSource("plain.flt", src)
	require.Error(t, err)

	var report diagnostics.Report
	require.False(t, errors.As(err, &report))
	require.True(t, strings.Contains(err.Error(), "parsing:"))
}

// TestWithMaxRecordNesting checks that a record literal nested deeper than
// the configured limit fails type checking.
func TestWithMaxRecordNesting(t *testing.T) {
	src := `
filter-map f {
	define {
		rx_tx m: R;
	}
	term t {
		match {
			true;
		}
	}
	action send_deep {
		mqtt.send({a: {a: {a: 1}}});
	}
	apply {
		filter match t matching {
			send_deep;
			return accept;
		};
		return reject;
	}
}
type R {
	asn: Asn
}
output-stream mqtt contains Message {
	a: Asn
}
`
	_, err := compiler.CompileSource("nesting.flt", src, compiler.WithMaxRecordNesting(2))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting exceeds max depth")
}
