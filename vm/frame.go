package vm

import (
	"github.com/bgpflow/filterlang/compiler"
	"github.com/bgpflow/filterlang/datasource"
	"github.com/bgpflow/filterlang/types"
)

// frame holds the live state of one Exec call: its scratch memory, the
// current rx/tx values (uniquely owned, mutated by direct clone-and-replace
// per §9), and the output-stream queue actions append to. Sub-blocks
// (terms, actions) run against the very same frame, sharing its stack, so
// a term block's final boolean is simply whatever CallTerm's nested exec
// call leaves on top of the shared stack.
type frame struct {
	vm    *VM
	mem   *LinearMemory
	rx    types.Value
	tx    types.Value
	out   *datasource.OutputStream
	steps int
	depth int
}

// exec runs instrs to completion or until a Return instruction fires,
// returning the verdict (non-nil) in the latter case. steps and depth are
// shared with every CallTerm/CallAction sub-call within the same Exec
// invocation, so the step budget and recursion limit bound the whole call
// tree, not just one block.
func (f *frame) exec(instrs []compiler.Instr) (*bool, error) {
	pc := 0
	for pc < len(instrs) {
		f.steps++
		if f.steps > f.vm.maxSteps {
			return nil, newErr(ErrStepBudgetExceeded, "exceeded %d instructions", f.vm.maxSteps)
		}
		in := instrs[pc]
		switch in.Op {
		case compiler.OpPushConst:
			f.mem.push(in.Const)

		case compiler.OpLoadVar:
			f.mem.push(f.mem.vars[in.Index])
		case compiler.OpStoreVar:
			f.mem.vars[in.Index] = f.mem.pop()

		case compiler.OpLoadArg:
			f.mem.push(f.vm.args[in.Index])

		case compiler.OpLoadRxField:
			if len(in.Path) == 0 {
				f.mem.push(f.rx)
				break
			}
			v, err := getFieldPath(f.rx, in.Path)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)
		case compiler.OpStoreRxField:
			v := f.mem.pop()
			nrx, err := setFieldPath(f.rx, in.Path, v)
			if err != nil {
				return nil, err
			}
			f.rx = nrx
		case compiler.OpLoadTxField:
			if len(in.Path) == 0 {
				f.mem.push(f.tx)
				break
			}
			v, err := getFieldPath(f.tx, in.Path)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)
		case compiler.OpStoreTxField:
			v := f.mem.pop()
			ntx, err := setFieldPath(f.tx, in.Path, v)
			if err != nil {
				return nil, err
			}
			f.tx = ntx

		case compiler.OpLoadLazyField:
			recv := f.rx
			if in.Name == "tx" {
				recv = f.tx
			}
			v, err := loadLazyField(recv, in.Variant, in.Fields, f.vm.accessors)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)

		case compiler.OpFieldGet:
			recv := f.mem.pop()
			v, err := getFieldPath(recv, in.Path)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)

		case compiler.OpBuildList:
			elems := f.mem.popN(in.Index)
			f.mem.push(types.Value{Kind: types.KList, List: elems})

		case compiler.OpBuildRecord:
			vals := f.mem.popN(in.Index)
			fields := make(map[string]types.Value, len(vals))
			for i, name := range in.Fields {
				fields[name] = vals[i]
			}
			f.mem.push(types.Value{Kind: types.KRecord, Fields: fields})

		case compiler.OpCallMethod:
			args := f.mem.popN(in.Index)
			recv := f.mem.pop()
			v, err := callMethod(recv, in.Method, args, f.rx)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)
		case compiler.OpCallStatic:
			args := f.mem.popN(in.Index)
			v, err := callStatic(in.TypeName, in.Method, args)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)
		case compiler.OpDataSrcCall:
			args := f.mem.popN(in.Index2)
			v, err := f.vm.callDataSource(in.Name, in.Method, args)
			if err != nil {
				return nil, err
			}
			f.mem.push(v)

		case compiler.OpCmpEq:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: equalValues(a, b)})
		case compiler.OpCmpNe:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: !equalValues(a, b)})
		case compiler.OpCmpLt:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: compareValues(a, b) < 0})
		case compiler.OpCmpLe:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: compareValues(a, b) <= 0})
		case compiler.OpCmpGt:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: compareValues(a, b) > 0})
		case compiler.OpCmpGe:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: compareValues(a, b) >= 0})

		case compiler.OpIn:
			list, v := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: inList(v, list)})
		case compiler.OpNotIn:
			list, v := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: !inList(v, list)})

		case compiler.OpAnd:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: a.Bool && b.Bool})
		case compiler.OpOr:
			b, a := f.mem.pop(), f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: a.Bool || b.Bool})
		case compiler.OpNot:
			a := f.mem.pop()
			f.mem.push(types.Value{Kind: types.KBool, Bool: !a.Bool})

		case compiler.OpJumpIf:
			if f.mem.pop().Bool {
				pc = in.Target
				continue
			}
		case compiler.OpJump:
			pc = in.Target
			continue

		case compiler.OpCallTerm:
			f.depth++
			if f.depth > f.vm.maxDepth {
				return nil, newErr(ErrRecursionLimitExceeded, "exceeded depth %d calling term %q", f.vm.maxDepth, in.Name)
			}
			verdict, err := f.exec(f.vm.unit.Terms[in.Name])
			f.depth--
			if err != nil {
				return nil, err
			}
			if verdict != nil {
				return verdict, nil
			}
		case compiler.OpCallAction:
			f.depth++
			if f.depth > f.vm.maxDepth {
				return nil, newErr(ErrRecursionLimitExceeded, "exceeded depth %d calling action %q", f.vm.maxDepth, in.Name)
			}
			verdict, err := f.exec(f.vm.unit.Actions[in.Name])
			f.depth--
			if err != nil {
				return nil, err
			}
			if verdict != nil {
				return verdict, nil
			}

		case compiler.OpEmit:
			v := f.mem.pop()
			f.out.Emit(in.Name, v)

		case compiler.OpReturnAccept:
			accept := true
			return &accept, nil
		case compiler.OpReturnReject:
			reject := false
			return &reject, nil
		case compiler.OpReturnFallthrough:
			// no-op: control falls through to the next instruction.

		default:
			return nil, newErr(ErrInvalidPayload, "unimplemented opcode %v", in.Op)
		}
		pc++
	}
	return nil, nil
}
