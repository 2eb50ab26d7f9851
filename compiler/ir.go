// Package compiler lowers a type-checked AST into MIR: named blocks of
// stack-and-register instructions that the vm package executes.
package compiler

import (
	"fmt"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/types"
)

// Op tags one MIR instruction. The instruction family below matches the
// distilled specification's table; BuildList/BuildRecord/FieldGet were added beyond
// the illustrative list to cover composite literals with non-constant
// sub-expressions (e.g. a record literal assembled from an rx field read),
// since the spec notes "names are illustrative; the contract is the effect".
type Op int

const (
	OpPushConst Op = iota
	OpLoadVar
	OpStoreVar
	OpLoadArg
	OpLoadRxField
	OpStoreRxField
	OpLoadTxField
	OpStoreTxField
	OpLoadLazyField
	OpCallMethod
	OpCallStatic
	OpDataSrcCall
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe
	OpIn
	OpNotIn
	OpAnd
	OpOr
	OpNot
	OpJumpIf
	OpJump
	OpBuildList
	OpBuildRecord
	OpFieldGet
	OpCallTerm
	OpCallAction
	OpEmit
	OpReturnAccept
	OpReturnReject
	OpReturnFallthrough
)

func (o Op) String() string {
	switch o {
	case OpPushConst:
		return "PushConst"
	case OpLoadVar:
		return "LoadVar"
	case OpStoreVar:
		return "StoreVar"
	case OpLoadArg:
		return "LoadArg"
	case OpLoadRxField:
		return "LoadRxField"
	case OpStoreRxField:
		return "StoreRxField"
	case OpLoadTxField:
		return "LoadTxField"
	case OpStoreTxField:
		return "StoreTxField"
	case OpLoadLazyField:
		return "LoadLazyField"
	case OpCallMethod:
		return "CallMethod"
	case OpCallStatic:
		return "CallStatic"
	case OpDataSrcCall:
		return "DataSrcCall"
	case OpCmpEq:
		return "CmpEq"
	case OpCmpNe:
		return "CmpNe"
	case OpCmpLt:
		return "CmpLt"
	case OpCmpLe:
		return "CmpLe"
	case OpCmpGt:
		return "CmpGt"
	case OpCmpGe:
		return "CmpGe"
	case OpIn:
		return "In"
	case OpNotIn:
		return "NotIn"
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpNot:
		return "Not"
	case OpJumpIf:
		return "JumpIf"
	case OpJump:
		return "Jump"
	case OpBuildList:
		return "BuildList"
	case OpBuildRecord:
		return "BuildRecord"
	case OpFieldGet:
		return "FieldGet"
	case OpCallTerm:
		return "CallTerm"
	case OpCallAction:
		return "CallAction"
	case OpEmit:
		return "Emit"
	case OpReturnAccept:
		return "ReturnAccept"
	case OpReturnReject:
		return "ReturnReject"
	case OpReturnFallthrough:
		return "ReturnFallthrough"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Instr is one MIR instruction. Only the fields relevant to Op are
// meaningful; the rest are zero.
type Instr struct {
	Op     Op
	Const  types.Value // PushConst
	Index  int         // LoadVar/StoreVar/LoadArg/DataSrcCall ds index/BuildList,Record count/CallMethod,Static arg count
	Index2 int         // DataSrcCall arg count (Index already holds the ds index)
	Path   []string    // LoadRxField/StoreRxField/LoadTxField/StoreTxField/FieldGet
	Field  string       // LoadLazyField path element, or single-field name
	Fields []string      // LoadLazyField path, BuildRecord field names (parallel to the Index values popped)
	Variant string      // LoadLazyField
	Method string        // CallMethod/CallStatic/DataSrcCall method name
	TypeName string      // CallStatic receiver type name / BuildRecord type name
	Name   string        // CallTerm/CallAction/Emit target name
	Target int           // JumpIf/Jump
	Meta   ast.MetaId
}
