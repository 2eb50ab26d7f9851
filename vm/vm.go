// Package vm executes a compiled Unit against rx/tx payloads, arguments
// and external data sources, producing an accept/reject verdict plus the
// mutated rx/tx and any output-stream messages. Execution is synchronous,
// single-threaded and one-shot per invocation (§5): a VM built once may be
// Exec'd concurrently from many goroutines, since each call allocates its
// own LinearMemory and output-stream queue.
package vm

import (
	"fmt"

	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/datasource"
	"github.com/bgpflow/filterlang/external"
	"github.com/bgpflow/filterlang/types"
)

// RunOption configures one VM build, following the functional-options
// pattern this module's compile-time configuration also uses.
type RunOption func(*config)

type config struct {
	args      map[string]types.Value
	context   *types.Value
	ribs      map[string]datasource.Rib
	tables    map[string]datasource.Table
	accessors external.Accessors
	maxSteps  int
	maxDepth  int
}

// defaultMaxSteps bounds one Exec call's instruction count; defaultMaxDepth
// bounds CallTerm/CallAction recursion. Both guard against a pathological
// or adversarially constructed Unit looping or recursing forever inside a
// single invocation — the VM has no preemption point otherwise (§5).
const (
	defaultMaxSteps = 1_000_000
	defaultMaxDepth = 64
)

// WithArgs supplies the unit's named filter-map arguments.
func WithArgs(args map[string]types.Value) RunOption {
	return func(c *config) { c.args = args }
}

// WithContext supplies the optional per-invocation context record (e.g. a
// RouteContext carrying peer metadata).
func WithContext(ctx types.Value) RunOption {
	return func(c *config) { c.context = &ctx }
}

// WithRib binds a Rib implementation to a `use rib <name>;` clause.
func WithRib(name string, r datasource.Rib) RunOption {
	return func(c *config) {
		if c.ribs == nil {
			c.ribs = map[string]datasource.Rib{}
		}
		c.ribs[name] = r
	}
}

// WithTable binds a Table implementation to a `use table <name>;` clause.
func WithTable(name string, t datasource.Table) RunOption {
	return func(c *config) {
		if c.tables == nil {
			c.tables = map[string]datasource.Table{}
		}
		c.tables[name] = t
	}
}

// WithAccessors supplies the byte-parser accessor registry LoadLazyField
// dispatches into.
func WithAccessors(a external.Accessors) RunOption {
	return func(c *config) { c.accessors = a }
}

// WithMaxSteps bounds the number of instructions one Exec call may execute
// before it fails with ErrStepBudgetExceeded. n <= 0 means use the default.
func WithMaxSteps(n int) RunOption {
	return func(c *config) { c.maxSteps = n }
}

// WithMaxRecursionDepth bounds how many nested CallTerm/CallAction frames
// one Exec call may enter before it fails with ErrRecursionLimitExceeded.
// n <= 0 means use the default.
func WithMaxRecursionDepth(n int) RunOption {
	return func(c *config) { c.maxDepth = n }
}

// VM is built once per (Unit, argument set, data-source binding) and can
// be Exec'd repeatedly and concurrently.
type VM struct {
	unit      *compiler.Unit
	args      []types.Value
	ribs      map[string]datasource.Rib
	tables    map[string]datasource.Table
	accessors external.Accessors
	context   *types.Value
	maxSteps  int
	maxDepth  int
}

// Build constructs a VM for unit. Build fails if the supplied arguments do
// not match the unit's declared parameters, or if a `use`d rib/table has no
// binding (§4.5 "Build fails if argument types do not match").
func Build(unit *compiler.Unit, opts ...RunOption) (*VM, error) {
	cfg := config{maxSteps: defaultMaxSteps, maxDepth: defaultMaxDepth}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxSteps <= 0 {
		cfg.maxSteps = defaultMaxSteps
	}
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = defaultMaxDepth
	}

	args := make([]types.Value, len(unit.ParamNames))
	for i, name := range unit.ParamNames {
		v, ok := cfg.args[name]
		if !ok {
			return nil, fmt.Errorf("vm: missing required argument %q", name)
		}
		argTy := &types.Type{Kind: v.Kind}
		if !types.CoercesTo(argTy, unit.ParamTypes[i]) {
			return nil, fmt.Errorf("vm: argument %q has the wrong type for %v", name, unit.ParamTypes[i])
		}
		args[i] = v
	}

	for name, ds := range unit.DataSources {
		if ds.IsRib {
			if _, ok := cfg.ribs[name]; !ok {
				return nil, fmt.Errorf("vm: no rib bound for %q", name)
			}
		} else if _, ok := cfg.tables[name]; !ok {
			return nil, fmt.Errorf("vm: no table bound for %q", name)
		}
	}

	return &VM{
		unit:      unit,
		args:      args,
		ribs:      cfg.ribs,
		tables:    cfg.tables,
		accessors: cfg.accessors,
		context:   cfg.context,
		maxSteps:  cfg.maxSteps,
		maxDepth:  cfg.maxDepth,
	}, nil
}

// Result is the outcome of one Exec call.
type Result struct {
	Accept   bool
	Rx       types.Value
	Tx       types.Value
	Messages []datasource.Message
}

// Exec runs the compiled unit against rx (mandatory) and tx (the zero
// Value if the unit declares no tx slot), returning the verdict, the final
// rx/tx and any emitted output-stream records. Each call owns its own
// LinearMemory and output-stream queue.
func (vm *VM) Exec(rx, tx types.Value) (Result, error) {
	f := &frame{
		vm:  vm,
		mem: NewLinearMemory(vm.unit.NumLocals),
		rx:  rx.Clone(),
		tx:  tx.Clone(),
		out: &datasource.OutputStream{},
	}
	verdict, err := f.exec(vm.unit.Main)
	if err != nil {
		return Result{}, err
	}
	if verdict == nil {
		return Result{}, newErr(ErrInvalidPayload, "main block fell through without a return")
	}
	return Result{
		Accept:   *verdict,
		Rx:       f.rx,
		Tx:       f.tx,
		Messages: f.out.Messages(),
	}, nil
}

func (vm *VM) callDataSource(name, method string, args []types.Value) (types.Value, error) {
	ds, ok := vm.unit.DataSources[name]
	if !ok {
		return types.Value{}, newErr(ErrInvalidMethodCall, "unbound data source %q", name)
	}
	if ds.IsRib {
		rib := vm.ribs[name]
		switch method {
		case "longest_match":
			if v, ok := rib.LongestMatch(args[0]); ok {
				return v, nil
			}
			return types.Unknown, nil
		case "contains":
			return types.Value{Kind: types.KBool, Bool: rib.Contains(args[0])}, nil
		default:
			return types.Value{}, newErr(ErrInvalidMethodCall, "rib has no method %q", method)
		}
	}
	table := vm.tables[name]
	switch method {
	case "get":
		if v, ok := table.Get(args[0]); ok {
			return v, nil
		}
		return types.Unknown, nil
	case "contains":
		return types.Value{Kind: types.KBool, Bool: table.Contains(args[0])}, nil
	default:
		return types.Value{}, newErr(ErrInvalidMethodCall, "table has no method %q", method)
	}
}
