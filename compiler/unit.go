package compiler

import (
	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/check"
	"github.com/bgpflow/filterlang/types"
	"github.com/google/uuid"
)

// Unit is the immutable compiled artifact for one filter-map/filter
// declaration. It is built once and shared read-only across every
// subsequent vm.Exec call, per the distilled specification's concurrency
// model (§5): no Unit field is mutated after Compile returns.
type Unit struct {
	ID          uuid.UUID
	Name        string
	IsFilter    bool
	RxType      *types.Type
	TxType      *types.Type
	RxName      string
	TxName      string
	ParamNames  []string
	ParamTypes  []*types.Type
	NumLocals   int
	Main        []Instr
	Terms       map[string][]Instr
	Actions     map[string][]Instr
	Default     *ast.ReturnKind
	DataSources map[string]check.DataSource
	DataSrcOrder []string
	Streams     map[string]*types.Type
}

// Program is the result of compiling an entire source file: one Unit per
// filter-map/filter declaration, plus the Spans table lowering diagnostics
// refer back into.
type Program struct {
	ID    uuid.UUID
	Units map[string]*Unit
	Order []string
	Spans *ast.Spans
}
