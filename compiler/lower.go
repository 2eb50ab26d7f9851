package compiler

import (
	"fmt"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/check"
	"github.com/bgpflow/filterlang/symbols"
	"github.com/bgpflow/filterlang/types"
)

// builder accumulates one block's instructions and resolves forward jump
// targets, a minimal two-pass assembler for the short-circuit boolean
// pipelines §4.4 requires of terms, `&&`/`||` and apply-arm dispatch.
type builder struct {
	instrs []Instr
}

func (b *builder) emit(i Instr) int {
	b.instrs = append(b.instrs, i)
	return len(b.instrs) - 1
}

func (b *builder) here() int { return len(b.instrs) }

func (b *builder) patch(pos, target int) { b.instrs[pos].Target = target }

func lowerUnit(u *check.Unit) (*Unit, error) {
	cu := &Unit{
		Name:         u.Name,
		IsFilter:     u.IsFilter,
		RxType:       u.RxType,
		TxType:       u.TxType,
		RxName:       u.RxName,
		TxName:       u.TxName,
		ParamNames:   u.ParamNames,
		ParamTypes:   u.ParamTypes,
		Terms:        map[string][]Instr{},
		Actions:      map[string][]Instr{},
		DataSources:  u.DataSources,
		DataSrcOrder: u.DataSrcOrder,
		Streams:      u.Streams,
		NumLocals:    len(u.LocalIndex),
	}

	mb := &builder{}
	if u.Decl.Define != nil {
		for _, as := range u.Decl.Define.Assigns {
			if err := lowerExprInto(mb, u, as.Expr); err != nil {
				return nil, fmt.Errorf("define %s: %w", as.Name, err)
			}
			mb.emit(Instr{Op: OpStoreVar, Index: u.LocalIndex[as.Name], Meta: as.Meta})
		}
	}

	for _, t := range u.Decl.Terms {
		tb := &builder{}
		if err := lowerAndChain(tb, u, t.Clauses); err != nil {
			return nil, fmt.Errorf("term %s: %w", t.Name, err)
		}
		cu.Terms[t.Name] = tb.instrs
	}

	for _, a := range u.Decl.Actions {
		ab := &builder{}
		for _, st := range a.Stmts {
			if err := lowerStmt(ab, u, st); err != nil {
				return nil, fmt.Errorf("action %s: %w", a.Name, err)
			}
		}
		cu.Actions[a.Name] = ab.instrs
	}

	if u.Decl.Apply != nil {
		if err := lowerApply(mb, u.Decl.Apply); err != nil {
			return nil, err
		}
		cu.Default = u.Decl.Apply.Default
	} else {
		mb.emit(Instr{Op: OpReturnReject})
	}
	cu.Main = mb.instrs

	return cu, nil
}

// lowerAndChain lowers a term's clause list as the short-circuit
// conjunction of its elements, leaving a single Bool on the stack.
func lowerAndChain(b *builder, u *check.Unit, clauses []ast.Expr) error {
	if len(clauses) == 0 {
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KBool, Bool: true}})
		return nil
	}
	if err := lowerExprInto(b, u, clauses[0]); err != nil {
		return err
	}
	for _, e := range clauses[1:] {
		b.emit(Instr{Op: OpNot})
		jmp := b.emit(Instr{Op: OpJumpIf})
		if err := lowerExprInto(b, u, e); err != nil {
			return err
		}
		jmpEnd := b.emit(Instr{Op: OpJump})
		falseLabel := b.here()
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KBool, Bool: false}})
		endLabel := b.here()
		b.patch(jmp, falseLabel)
		b.patch(jmpEnd, endLabel)
	}
	return nil
}

func lowerStmt(b *builder, u *check.Unit, st ast.Stmt) error {
	switch s := st.(type) {
	case *ast.SetFieldStmt:
		if err := lowerExprInto(b, u, s.Value); err != nil {
			return err
		}
		if s.Receiver == u.TxName && u.TxName != u.RxName {
			b.emit(Instr{Op: OpStoreTxField, Path: s.Path, Meta: s.Meta()})
		} else {
			b.emit(Instr{Op: OpStoreRxField, Path: s.Path, Meta: s.Meta()})
		}
		return nil
	case *ast.SendStmt:
		if err := lowerExprInto(b, u, s.Value); err != nil {
			return err
		}
		b.emit(Instr{Op: OpEmit, Name: s.Stream, Meta: s.Meta()})
		return nil
	default:
		return fmt.Errorf("unsupported statement %T", st)
	}
}

func lowerApply(b *builder, apply *ast.ApplyBlock) error {
	for _, arm := range apply.Arms {
		if arm.Term == "" {
			for _, act := range arm.Actions {
				b.emit(Instr{Op: OpCallAction, Name: act})
			}
			if arm.Return != nil {
				emitReturn(b, *arm.Return)
			}
			continue
		}

		b.emit(Instr{Op: OpCallTerm, Name: arm.Term})
		var jmp int
		if !arm.Negate {
			b.emit(Instr{Op: OpNot})
			jmp = b.emit(Instr{Op: OpJumpIf})
		} else {
			jmp = b.emit(Instr{Op: OpJumpIf})
		}
		for _, act := range arm.Actions {
			b.emit(Instr{Op: OpCallAction, Name: act})
		}
		if arm.Return != nil {
			emitReturn(b, *arm.Return)
		}
		b.patch(jmp, b.here())
	}
	if apply.Default != nil {
		emitReturn(b, *apply.Default)
	} else {
		b.emit(Instr{Op: OpReturnReject})
	}
	return nil
}

func emitReturn(b *builder, kind ast.ReturnKind) {
	if kind == ast.ReturnAccept {
		b.emit(Instr{Op: OpReturnAccept})
	} else {
		b.emit(Instr{Op: OpReturnReject})
	}
}

func lowerExprInto(b *builder, u *check.Unit, e ast.Expr) error {
	switch n := e.(type) {
	case *ast.IntLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KIntegerLiteral, I64: n.Value}, Meta: n.Meta()})
		return nil
	case *ast.HexLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KHexLiteral, U64: n.Value}, Meta: n.Meta()})
		return nil
	case *ast.StringLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KStringLiteral, Str: n.Value}, Meta: n.Meta()})
		return nil
	case *ast.BoolLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KBool, Bool: n.Value}, Meta: n.Meta()})
		return nil
	case *ast.AsnLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KAsn, U64: uint64(n.Value)}, Meta: n.Meta()})
		return nil
	case *ast.IPLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KIPAddr, Str: n.Value}, Meta: n.Meta()})
		return nil
	case *ast.PrefixLenLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KPrefixLength, I64: int64(n.Value)}, Meta: n.Meta()})
		return nil
	case *ast.CommunityLiteral:
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KCommunity, Str: n.Raw}, Meta: n.Meta()})
		return nil

	case *ast.ListExpr:
		for _, el := range n.Elems {
			if err := lowerExprInto(b, u, el); err != nil {
				return err
			}
		}
		b.emit(Instr{Op: OpBuildList, Index: len(n.Elems), Meta: n.Meta()})
		return nil

	case *ast.RecordExpr:
		names := make([]string, 0, len(n.Fields))
		for _, f := range n.Fields {
			if err := lowerExprInto(b, u, f.Value); err != nil {
				return err
			}
			names = append(names, f.Name)
		}
		b.emit(Instr{Op: OpBuildRecord, Index: len(n.Fields), Fields: names, TypeName: n.TypeName, Meta: n.Meta()})
		return nil

	case *ast.VarExpr:
		return lowerVar(b, u, n)

	case *ast.RootCallExpr:
		tok, ok := u.Exprs.Idents[n.Meta()]
		if !ok || tok.Kind != symbols.TDataSource {
			return fmt.Errorf("unresolved call %q", n.Name)
		}
		for _, a := range n.Args {
			if err := lowerExprInto(b, u, a); err != nil {
				return err
			}
		}
		b.emit(Instr{Op: OpDataSrcCall, Index: dsIndex(u, tok.Name), Method: "contains", Name: tok.Name, Index2: len(n.Args), Meta: n.Meta()})
		return nil

	case *ast.FieldAccessExpr:
		return lowerFieldAccess(b, u, n)

	case *ast.MethodCallExpr:
		return lowerMethodCall(b, u, n)

	case *ast.PrefixMatchExpr:
		if err := lowerExprInto(b, u, n.Base); err != nil {
			return err
		}
		method, args := prefixMatchMethod(n)
		for _, a := range args {
			b.emit(Instr{Op: OpPushConst, Const: a})
		}
		b.emit(Instr{Op: OpCallMethod, Method: method, Index: len(args), Meta: n.Meta()})
		return nil

	case *ast.BinaryExpr:
		if err := lowerExprInto(b, u, n.Left); err != nil {
			return err
		}
		if err := lowerExprInto(b, u, n.Right); err != nil {
			return err
		}
		b.emit(Instr{Op: binOpOp(n.Op), Meta: n.Meta()})
		return nil

	case *ast.LogicalExpr:
		return lowerLogical(b, u, n)

	case *ast.NotExpr:
		if err := lowerExprInto(b, u, n.Operand); err != nil {
			return err
		}
		b.emit(Instr{Op: OpNot, Meta: n.Meta()})
		return nil

	case *ast.InExpr:
		if err := lowerExprInto(b, u, n.Value); err != nil {
			return err
		}
		if err := lowerExprInto(b, u, n.List); err != nil {
			return err
		}
		if n.Negate {
			b.emit(Instr{Op: OpNotIn, Meta: n.Meta()})
		} else {
			b.emit(Instr{Op: OpIn, Meta: n.Meta()})
		}
		return nil

	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
}

func lowerVar(b *builder, u *check.Unit, n *ast.VarExpr) error {
	tok, ok := u.Exprs.Idents[n.Meta()]
	if !ok {
		return fmt.Errorf("unresolved identifier %q", n.Name)
	}
	switch tok.Kind {
	case symbols.TArgument:
		switch tok.Name {
		case "rx":
			b.emit(Instr{Op: OpLoadRxField, Meta: n.Meta()})
		case "tx":
			b.emit(Instr{Op: OpLoadTxField, Meta: n.Meta()})
		default:
			b.emit(Instr{Op: OpLoadArg, Index: tok.Index, Meta: n.Meta()})
		}
		return nil
	case symbols.TVariable:
		b.emit(Instr{Op: OpLoadVar, Index: tok.Index, Meta: n.Meta()})
		return nil
	default:
		return fmt.Errorf("identifier %q cannot be used as a value", n.Name)
	}
}

// lowerFieldAccess specializes the common case of a field chain rooted
// directly at rx/tx (or a lazy-record-typed rx/tx) into a single
// LoadRxField/LoadTxField/LoadLazyField instruction; any other base is
// lowered generically via a push-then-navigate sequence.
func lowerFieldAccess(b *builder, u *check.Unit, n *ast.FieldAccessExpr) error {
	if base, ok := n.Base.(*ast.VarExpr); ok {
		if tok, ok := u.Exprs.Idents[base.Meta()]; ok && tok.Kind == symbols.TArgument {
			switch tok.Name {
			case "rx":
				if u.RxType != nil && u.RxType.Kind == types.KLazyRecord {
					b.emit(Instr{Op: OpLoadLazyField, Name: "rx", Variant: u.RxType.Name, Fields: n.Fields, Meta: n.Meta()})
				} else {
					b.emit(Instr{Op: OpLoadRxField, Path: n.Fields, Meta: n.Meta()})
				}
				return nil
			case "tx":
				if u.TxType != nil && u.TxType.Kind == types.KLazyRecord {
					b.emit(Instr{Op: OpLoadLazyField, Name: "tx", Variant: u.TxType.Name, Fields: n.Fields, Meta: n.Meta()})
				} else {
					b.emit(Instr{Op: OpLoadTxField, Path: n.Fields, Meta: n.Meta()})
				}
				return nil
			}
		}
	}
	if err := lowerExprInto(b, u, n.Base); err != nil {
		return err
	}
	b.emit(Instr{Op: OpFieldGet, Path: n.Fields, Meta: n.Meta()})
	return nil
}

func lowerMethodCall(b *builder, u *check.Unit, n *ast.MethodCallExpr) error {
	if baseVar, ok := n.Base.(*ast.VarExpr); ok {
		if _, hasIdent := u.Exprs.Idents[baseVar.Meta()]; !hasIdent && check.IsBuiltinTypeName(baseVar.Name) {
			for _, a := range n.Args {
				if err := lowerExprInto(b, u, a); err != nil {
					return err
				}
			}
			b.emit(Instr{Op: OpCallStatic, TypeName: baseVar.Name, Method: n.Method, Index: len(n.Args), Meta: n.Meta()})
			return nil
		}
		if tok, ok := u.Exprs.Idents[baseVar.Meta()]; ok && tok.Kind == symbols.TDataSource {
			for _, a := range n.Args {
				if err := lowerExprInto(b, u, a); err != nil {
					return err
				}
			}
			b.emit(Instr{Op: OpDataSrcCall, Index: dsIndex(u, tok.Name), Method: n.Method, Name: tok.Name, Index2: len(n.Args), Meta: n.Meta()})
			return nil
		}
	}
	if err := lowerExprInto(b, u, n.Base); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := lowerExprInto(b, u, a); err != nil {
			return err
		}
	}
	b.emit(Instr{Op: OpCallMethod, Method: n.Method, Index: len(n.Args), Meta: n.Meta()})
	return nil
}

func lowerLogical(b *builder, u *check.Unit, n *ast.LogicalExpr) error {
	if err := lowerExprInto(b, u, n.Left); err != nil {
		return err
	}
	if n.Op == ast.OpAnd {
		b.emit(Instr{Op: OpNot})
		jmp := b.emit(Instr{Op: OpJumpIf})
		if err := lowerExprInto(b, u, n.Right); err != nil {
			return err
		}
		jmpEnd := b.emit(Instr{Op: OpJump})
		falseLabel := b.here()
		b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KBool, Bool: false}})
		b.patch(jmp, falseLabel)
		b.patch(jmpEnd, b.here())
		return nil
	}
	jmp := b.emit(Instr{Op: OpJumpIf})
	if err := lowerExprInto(b, u, n.Right); err != nil {
		return err
	}
	jmpEnd := b.emit(Instr{Op: OpJump})
	trueLabel := b.here()
	b.emit(Instr{Op: OpPushConst, Const: types.Value{Kind: types.KBool, Bool: true}})
	b.patch(jmp, trueLabel)
	b.patch(jmpEnd, b.here())
	return nil
}

func binOpOp(op ast.BinOp) Op {
	switch op {
	case ast.OpEq:
		return OpCmpEq
	case ast.OpNe:
		return OpCmpNe
	case ast.OpLt:
		return OpCmpLt
	case ast.OpLe:
		return OpCmpLe
	case ast.OpGt:
		return OpCmpGt
	default:
		return OpCmpGe
	}
}

func prefixMatchMethod(n *ast.PrefixMatchExpr) (string, []types.Value) {
	switch n.Op {
	case ast.MatchLonger:
		return "prefix_longer", nil
	case ast.MatchOrLonger:
		return "prefix_orlonger", nil
	case ast.MatchPrefixLenRange:
		return "prefix_length_range", []types.Value{
			{Kind: types.KPrefixLength, I64: int64(n.Lo)},
			{Kind: types.KPrefixLength, I64: int64(n.Hi)},
		}
	case ast.MatchUpTo:
		return "prefix_upto", []types.Value{{Kind: types.KPrefixLength, I64: int64(n.Hi)}}
	case ast.MatchNetmask:
		return "prefix_netmask", []types.Value{{Kind: types.KStringLiteral, Str: n.Netmask}}
	default:
		return "prefix_exact", nil
	}
}

func dsIndex(u *check.Unit, name string) int {
	for i, n := range u.DataSrcOrder {
		if n == name {
			return i
		}
	}
	return -1
}
