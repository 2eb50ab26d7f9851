package compiler

import (
	"errors"
	"fmt"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/check"
	"github.com/bgpflow/filterlang/diagnostics"
	"github.com/google/uuid"
)

// CompileOption configures one Compile/CompileSource call, the teacher's
// functional-option pattern (options.go's CompileOption/UnmarshalOption)
// applied to this module's compile-time tuning.
type CompileOption func(*compileConfig)

type compileConfig struct {
	diagnosticsVerbose bool
	maxRecordDepth     int
}

func defaultCompileConfig() compileConfig {
	return compileConfig{maxRecordDepth: check.DefaultMaxRecordDepth}
}

// WithDiagnosticsVerbose upgrades a lexer/parser failure from a plain
// wrapped error into a diagnostics.Report carrying the offending span,
// for a host that renders rich diagnostics instead of logging one line.
// Recover the structured fields with errors.As(err, &diagnostics.Report{}).
func WithDiagnosticsVerbose(v bool) CompileOption {
	return func(c *compileConfig) { c.diagnosticsVerbose = v }
}

// WithMaxRecordNesting bounds how deeply a record literal may nest before
// type checking rejects it (see check.WithMaxRecordDepth). n <= 0 means
// use check.DefaultMaxRecordDepth.
func WithMaxRecordNesting(n int) CompileOption {
	return func(c *compileConfig) {
		if n > 0 {
			c.maxRecordDepth = n
		}
	}
}

// Compile runs the full front end (parse is assumed already done; prog is
// the parsed AST) through type checking and lowering, producing an
// immutable Program ready for repeated vm.Exec calls. Each returned Unit
// and the Program itself get a fresh uuid, used for trace/diagnostic
// correlation across concurrent invocations (§5).
func Compile(prog *ast.Program, opts ...CompileOption) (*Program, error) {
	cfg := defaultCompileConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	env, err := check.NewEnv(prog)
	if err != nil {
		return nil, fmt.Errorf("resolving declarations: %w", err)
	}

	units, err := check.Check(env, prog, check.WithMaxRecordDepth(cfg.maxRecordDepth))
	if err != nil {
		return nil, fmt.Errorf("type checking: %w", err)
	}

	out := &Program{
		ID:    uuid.New(),
		Units: map[string]*Unit{},
		Spans: prog.Spans,
	}
	for _, u := range units {
		cu, err := lowerUnit(u)
		if err != nil {
			return nil, fmt.Errorf("lowering %s: %w", u.Name, err)
		}
		cu.ID = uuid.New()
		out.Units[cu.Name] = cu
		out.Order = append(out.Order, cu.Name)
	}
	return out, nil
}

// CompileSource parses and compiles src in one step, the entry point a host
// embedding this module (or a test) uses when it only has source text.
func CompileSource(file, src string, opts ...CompileOption) (*Program, error) {
	cfg := defaultCompileConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	prog, err := ast.Parse(file, src)
	if err != nil {
		if cfg.diagnosticsVerbose {
			var lexErr *ast.LexError
			var parseErr *ast.ParseError
			switch {
			case errors.As(err, &lexErr):
				return nil, diagnostics.New("lex-error", lexErr.Span, lexErr.Error())
			case errors.As(err, &parseErr):
				return nil, diagnostics.New("parse-error", parseErr.Span, parseErr.Error())
			}
		}
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return Compile(prog, opts...)
}
