// Package diagnostics defines the structured error/warning report shape a
// host can render uniformly. compiler.CompileSource returns one for a lexer
// or parser failure when WithDiagnosticsVerbose is set; checker and lowering
// failures are returned as plain wrapped errors.
package diagnostics

import (
	"fmt"

	"github.com/bgpflow/filterlang/ast"
)

// Severity tags a Report's urgency.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Report is one diagnostic: a short label, a longer description, the
// primary span it anchors to, and any secondary spans that help explain it
// (e.g. a conflicting earlier declaration).
type Report struct {
	Severity    Severity
	Label       string
	Description string
	Primary     ast.Span
	Secondary   []ast.Span
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %s at %s: %s", r.Severity, r.Label, r.Primary, r.Description)
}

// Error satisfies the error interface, so a Report can be returned directly
// from a fallible call and recovered with errors.As by a host that wants
// the structured fields rather than just the rendered message.
func (r Report) Error() string {
	return r.String()
}

// New builds an error-severity Report.
func New(label string, primary ast.Span, description string) Report {
	return Report{Severity: SeverityError, Label: label, Description: description, Primary: primary}
}

// WithSecondary attaches secondary spans to a Report.
func (r Report) WithSecondary(spans ...ast.Span) Report {
	r.Secondary = append(r.Secondary, spans...)
	return r
}
