// Package debug provides the lexer/parser's opt-in trace logging, in the
// teacher's style of a package-level Log helper gated by an environment
// variable rather than a build tag (this module is a library, not a CLI
// with its own flag set).
package debug

import (
	"fmt"
	"os"
)

var enabled = os.Getenv("FILTERLANG_DEBUG") != ""

// Log writes one trace line to stderr under category if debug logging is
// enabled. Disabled by default so the lexer/parser's hot path never pays
// for formatting args it throws away.
func Log(category, format string, args ...any) {
	if !enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] "+format+"\n", append([]any{category}, args...)...)
}
