package check

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bgpflow/filterlang/ast"
	"github.com/bgpflow/filterlang/symbols"
	"github.com/bgpflow/filterlang/types"
)

// DefaultMaxRecordDepth bounds record-literal nesting when no Option
// overrides it (see WithMaxRecordDepth).
const DefaultMaxRecordDepth = 64

// Option configures one Check call, the functional-option pattern this
// module's compile-time and run-time tuning both use.
type Option func(*options)

type options struct {
	maxRecordDepth int
}

func defaultOptions() options {
	return options{maxRecordDepth: DefaultMaxRecordDepth}
}

// WithMaxRecordDepth bounds how deeply a record literal (typed or
// anonymous) may nest before checkRecordExpr rejects it, guarding the
// checker's recursive descent against adversarially deep literals. n <= 0
// means use DefaultMaxRecordDepth.
func WithMaxRecordDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRecordDepth = n
		}
	}
}

// Result holds every fact the checker recorded about one filter-map/filter
// unit's expressions, keyed by ast.MetaId so the lowering pass can look them
// up without re-walking the AST.
type Result struct {
	ExprTypes map[ast.MetaId]*types.Type
	Idents    map[ast.MetaId]symbols.Token
}

func newResult() *Result {
	return &Result{
		ExprTypes: map[ast.MetaId]*types.Type{},
		Idents:    map[ast.MetaId]symbols.Token{},
	}
}

// DataSource records what a `use rib|table <name>;` clause bound into scope.
type DataSource struct {
	Token symbols.Token
	IsRib bool
	Of    *types.Type
}

// Unit is everything the lowering pass needs about one checked filter-map.
type Unit struct {
	Name        string
	IsFilter    bool
	RxName      string
	TxName      string
	RxType      *types.Type
	TxType      *types.Type
	Params      []symbols.Token
	ParamNames  []string
	ParamTypes  []*types.Type
	DataSources map[string]DataSource
	DataSrcOrder []string
	Streams     map[string]*types.Type
	Locals      []string
	LocalIndex  map[string]int
	TermIndex   map[string]int
	ActionIndex map[string]int
	Decl        *ast.FilterMapDecl
	Exprs       *Result
}

// ctx is the per-unit checking context threaded through every checkExpr /
// checkStmt call.
type ctx struct {
	env         *Env
	scope       *symbols.Scope
	varTypes    map[string]*types.Type
	dataSources map[string]DataSource
	streams     map[string]*types.Type
	rxType      *types.Type
	txType      *types.Type
	rxName      string
	txName      string
	s           *subst
	result      *Result
	maxRecordDepth int
	recordDepth    int
}

// Check type-checks every FilterMapDecl in prog against env, returning one
// Unit per declaration in source order.
func Check(env *Env, prog *ast.Program, opts ...Option) ([]*Unit, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	var units []*Unit
	for _, d := range prog.Decls {
		fm, ok := d.(*ast.FilterMapDecl)
		if !ok {
			continue
		}
		u, err := checkUnit(env, fm, o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fm.Name, err)
		}
		units = append(units, u)
	}
	return units, nil
}

func checkUnit(env *Env, fm *ast.FilterMapDecl, o options) (*Unit, error) {
	c := &ctx{
		env:            env,
		scope:          symbols.NewScope(),
		varTypes:       map[string]*types.Type{},
		dataSources:    map[string]DataSource{},
		streams:        map[string]*types.Type{},
		s:              newSubst(),
		result:         newResult(),
		maxRecordDepth: o.maxRecordDepth,
	}

	u := &Unit{
		Name:        fm.Name,
		IsFilter:    fm.IsFilter,
		DataSources: c.dataSources,
		Streams:     c.streams,
		LocalIndex:  map[string]int{},
		TermIndex:   map[string]int{},
		ActionIndex: map[string]int{},
		Decl:        fm,
		Exprs:       c.result,
	}

	for i, p := range fm.Params {
		ty, err := env.resolveTypeExpr(p.Type)
		if err != nil {
			return nil, err
		}
		tok := symbols.Token{Kind: symbols.TArgument, Index: i, Name: p.Name}
		if err := c.scope.Declare(p.Name, tok); err != nil {
			return nil, err
		}
		c.varTypes[p.Name] = ty
		u.Params = append(u.Params, tok)
		u.ParamNames = append(u.ParamNames, p.Name)
		u.ParamTypes = append(u.ParamTypes, ty)
	}

	if fm.Define != nil {
		if err := checkDefine(c, u, fm.Define); err != nil {
			return nil, err
		}
	}

	for i, t := range fm.Terms {
		u.TermIndex[t.Name] = i
		for _, clause := range t.Clauses {
			ty, err := checkExpr(c, clause)
			if err != nil {
				return nil, fmt.Errorf("term %s: %w", t.Name, err)
			}
			if !types.CoercesTo(ty, types.Simple(types.KBool)) {
				return nil, fmt.Errorf("term %s: clause has type %v, expected Bool", t.Name, ty)
			}
		}
	}

	for i, a := range fm.Actions {
		u.ActionIndex[a.Name] = i
		for _, st := range a.Stmts {
			if err := checkStmt(c, u, st); err != nil {
				return nil, fmt.Errorf("action %s: %w", a.Name, err)
			}
		}
	}

	if fm.Apply != nil {
		for _, arm := range fm.Apply.Arms {
			if arm.Term != "" {
				if _, ok := u.TermIndex[arm.Term]; !ok {
					return nil, fmt.Errorf("apply: undeclared term %q", arm.Term)
				}
			}
			for _, act := range arm.Actions {
				if _, ok := u.ActionIndex[act]; !ok {
					return nil, fmt.Errorf("apply: undeclared action %q", act)
				}
			}
		}
	}

	return u, nil
}

func checkDefine(c *ctx, u *Unit, def *ast.DefineBlock) error {
	for _, rt := range def.RxTx {
		ty, err := c.env.resolveTypeExpr(rt.Type)
		if err != nil {
			return err
		}
		switch rt.Kind {
		case ast.RxOnly:
			u.RxName, u.RxType = rt.Name, ty
		case ast.TxOnly:
			u.TxName, u.TxType = rt.Name, ty
		case ast.RxTx:
			u.RxName, u.RxType = rt.Name, ty
			u.TxName, u.TxType = rt.Name, ty
		}
	}
	c.rxType, c.txType, c.rxName, c.txName = u.RxType, u.TxType, u.RxName, u.TxName

	for _, use := range def.Uses {
		if use.IsRib {
			ribTy, ok := c.env.Ribs[use.Name]
			if !ok {
				return fmt.Errorf("use: undeclared rib %q", use.Name)
			}
			ds := DataSource{
				Token: symbols.Token{Kind: symbols.TDataSource, Index: len(c.dataSources), Name: use.Name},
				IsRib: true,
				Of:    ribTy.Of,
			}
			c.dataSources[use.Name] = ds
			u.DataSrcOrder = append(u.DataSrcOrder, use.Name)
			if err := c.scope.Declare(use.Name, ds.Token); err != nil {
				return err
			}
		} else {
			tableTy, ok := c.env.Tables[use.Name]
			if !ok {
				return fmt.Errorf("use: undeclared table %q", use.Name)
			}
			ds := DataSource{
				Token: symbols.Token{Kind: symbols.TDataSource, Index: len(c.dataSources), Name: use.Name},
				IsRib: false,
				Of:    tableTy.Of,
			}
			c.dataSources[use.Name] = ds
			u.DataSrcOrder = append(u.DataSrcOrder, use.Name)
			if err := c.scope.Declare(use.Name, ds.Token); err != nil {
				return err
			}
		}
	}

	for name, streamTy := range c.env.Streams {
		c.streams[name] = streamTy
	}

	for _, as := range def.Assigns {
		ty, err := checkExpr(c, as.Expr)
		if err != nil {
			return fmt.Errorf("define %s: %w", as.Name, err)
		}
		tok := symbols.Token{Kind: symbols.TVariable, Index: len(u.LocalIndex), Name: as.Name}
		if err := c.scope.Declare(as.Name, tok); err != nil {
			return err
		}
		c.varTypes[as.Name] = ty
		u.LocalIndex[as.Name] = tok.Index
		u.Locals = append(u.Locals, as.Name)
	}
	return nil
}

func checkStmt(c *ctx, u *Unit, st ast.Stmt) error {
	switch s := st.(type) {
	case *ast.SetFieldStmt:
		var recvType *types.Type
		switch s.Receiver {
		case c.rxName:
			recvType = c.rxType
		case c.txName:
			recvType = c.txType
		default:
			return fmt.Errorf("set: unknown receiver %q", s.Receiver)
		}
		fieldTy, err := walkFields(recvType, s.Path)
		if err != nil {
			return err
		}
		valTy, err := checkExpr(c, s.Value)
		if err != nil {
			return err
		}
		if !types.CoercesTo(valTy, fieldTy) {
			return fmt.Errorf("set: cannot assign %v to field %v of type %v", valTy, s.Path, fieldTy)
		}
		return nil
	case *ast.SendStmt:
		streamTy, ok := c.streams[s.Stream]
		if !ok {
			return fmt.Errorf("send: undeclared output stream %q", s.Stream)
		}
		valTy, err := checkExpr(c, s.Value)
		if err != nil {
			return err
		}
		if !types.CoercesTo(valTy, streamTy) {
			return fmt.Errorf("send: cannot send %v to stream of type %v", valTy, streamTy)
		}
		return nil
	default:
		return fmt.Errorf("unsupported statement %T", st)
	}
}

func walkFields(base *types.Type, path []string) (*types.Type, error) {
	cur := base
	for _, name := range path {
		f, ok := cur.FieldByName(name)
		if !ok {
			return nil, fmt.Errorf("type %v has no field %q", cur, name)
		}
		cur = f.Type
	}
	return cur, nil
}

func checkExpr(c *ctx, e ast.Expr) (*types.Type, error) {
	ty, err := checkExprInner(c, e)
	if err != nil {
		return nil, err
	}
	c.result.ExprTypes[e.Meta()] = ty
	return ty, nil
}

func checkExprInner(c *ctx, e ast.Expr) (*types.Type, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return types.Simple(types.KIntegerLiteral), nil
	case *ast.HexLiteral:
		return types.Simple(types.KHexLiteral), nil
	case *ast.StringLiteral:
		return types.Simple(types.KStringLiteral), nil
	case *ast.BoolLiteral:
		return types.Simple(types.KBool), nil
	case *ast.AsnLiteral:
		return types.Simple(types.KAsn), nil
	case *ast.IPLiteral:
		return types.Simple(types.KIPAddr), nil
	case *ast.PrefixLenLiteral:
		return types.Simple(types.KPrefixLength), nil
	case *ast.CommunityLiteral:
		return types.Simple(types.KCommunity), nil

	case *ast.ListExpr:
		elem := c.s.freshVar()
		for _, el := range n.Elems {
			ety, err := checkExpr(c, el)
			if err != nil {
				return nil, err
			}
			if err := c.s.Unify(elem, ety); err != nil {
				return nil, fmt.Errorf("list element: %w", err)
			}
		}
		return types.List(c.s.Finalize(elem)), nil

	case *ast.RecordExpr:
		return checkRecordExpr(c, n)

	case *ast.VarExpr:
		return checkVarExpr(c, n)

	case *ast.RootCallExpr:
		return checkRootCall(c, n)

	case *ast.FieldAccessExpr:
		base, err := checkExpr(c, n.Base)
		if err != nil {
			return nil, err
		}
		cur := base
		for _, f := range n.Fields {
			ft, ok := cur.FieldByName(f)
			if !ok {
				if cur.Kind == types.KLazyRecord {
					// Field absent from the declared variant: resolved as
					// Unknown at runtime, not a compile error.
					return types.Simple(types.KUnknown), nil
				}
				return nil, fmt.Errorf("type %v has no field %q", cur, f)
			}
			cur = ft.Type
		}
		return cur, nil

	case *ast.MethodCallExpr:
		return checkMethodCall(c, n)

	case *ast.PrefixMatchExpr:
		base, err := checkExpr(c, n.Base)
		if err != nil {
			return nil, err
		}
		if !types.CoercesTo(base, types.Simple(types.KPrefix)) {
			return nil, fmt.Errorf("prefix match: %v is not a Prefix", base)
		}
		return types.Simple(types.KBool), nil

	case *ast.BinaryExpr:
		lt, err := checkExpr(c, n.Left)
		if err != nil {
			return nil, err
		}
		rt, err := checkExpr(c, n.Right)
		if err != nil {
			return nil, err
		}
		if !types.CoercesTo(lt, rt) && !types.CoercesTo(rt, lt) {
			return nil, fmt.Errorf("cannot compare %v with %v", lt, rt)
		}
		return types.Simple(types.KBool), nil

	case *ast.LogicalExpr:
		if err := checkBool(c, n.Left); err != nil {
			return nil, err
		}
		if err := checkBool(c, n.Right); err != nil {
			return nil, err
		}
		return types.Simple(types.KBool), nil

	case *ast.NotExpr:
		if err := checkBool(c, n.Operand); err != nil {
			return nil, err
		}
		return types.Simple(types.KBool), nil

	case *ast.InExpr:
		vt, err := checkExpr(c, n.Value)
		if err != nil {
			return nil, err
		}
		lt, err := checkExpr(c, n.List)
		if err != nil {
			return nil, err
		}
		if lt.Kind != types.KList {
			return nil, fmt.Errorf("in: right-hand side is %v, not a list", lt)
		}
		if err := c.s.Unify(vt, lt.Elem); err != nil {
			return nil, fmt.Errorf("in: cannot compare %v against list of %v: %w", vt, lt.Elem, err)
		}
		return types.Simple(types.KBool), nil

	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

func checkBool(c *ctx, e ast.Expr) error {
	ty, err := checkExpr(c, e)
	if err != nil {
		return err
	}
	if !types.CoercesTo(ty, types.Simple(types.KBool)) {
		return fmt.Errorf("expected Bool, got %v", ty)
	}
	return nil
}

func checkRecordExpr(c *ctx, n *ast.RecordExpr) (*types.Type, error) {
	c.recordDepth++
	defer func() { c.recordDepth-- }()
	if c.recordDepth > c.maxRecordDepth {
		return nil, fmt.Errorf("record literal nesting exceeds max depth %d", c.maxRecordDepth)
	}

	if n.TypeName == "" {
		fields := make([]types.Field, 0, len(n.Fields))
		for _, rf := range n.Fields {
			vt, err := checkExpr(c, rf.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.Field{Name: rf.Name, Type: vt})
		}
		return types.Anonymous(fields), nil
	}

	decl, ok := c.env.Records[n.TypeName]
	if !ok {
		return nil, fmt.Errorf("undeclared record type %q", n.TypeName)
	}
	seen := map[string]bool{}
	for _, rf := range n.Fields {
		declField, ok := decl.FieldByName(rf.Name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", n.TypeName, rf.Name)
		}
		vt, err := checkExpr(c, rf.Value)
		if err != nil {
			return nil, err
		}
		if !types.CoercesTo(vt, declField.Type) {
			return nil, fmt.Errorf("field %s.%s: cannot assign %v to %v", n.TypeName, rf.Name, vt, declField.Type)
		}
		seen[rf.Name] = true
	}
	for _, f := range decl.Fields {
		if !seen[f.Name] {
			return nil, fmt.Errorf("%s: missing field %q", n.TypeName, f.Name)
		}
	}
	return decl, nil
}

func checkVarExpr(c *ctx, n *ast.VarExpr) (*types.Type, error) {
	switch n.Name {
	case c.rxName:
		c.result.Idents[n.Meta()] = symbols.Token{Kind: symbols.TArgument, Name: "rx"}
		return c.rxType, nil
	case c.txName:
		c.result.Idents[n.Meta()] = symbols.Token{Kind: symbols.TArgument, Name: "tx"}
		return c.txType, nil
	}
	if ds, ok := c.dataSources[n.Name]; ok {
		c.result.Idents[n.Meta()] = ds.Token
		kind := types.KTable
		if ds.IsRib {
			kind = types.KRib
		}
		return &types.Type{Kind: kind, Of: ds.Of}, nil
	}
	if streamTy, ok := c.streams[n.Name]; ok {
		c.result.Idents[n.Meta()] = symbols.Token{Kind: symbols.TOutputStream, Name: n.Name}
		return &types.Type{Kind: types.KOutputStream, Of: streamTy}, nil
	}
	tok, ok := c.scope.Lookup(n.Name)
	if !ok {
		visible := c.scope.VisibleNames()
		for _, name := range []string{c.rxName, c.txName} {
			if name != "" && !slices.Contains(visible, name) {
				visible = append(visible, name)
			}
		}
		sort.Strings(visible)
		if len(visible) > 0 {
			return nil, fmt.Errorf("undeclared identifier %q (in scope: %s)", n.Name, strings.Join(visible, ", "))
		}
		return nil, fmt.Errorf("undeclared identifier %q", n.Name)
	}
	c.result.Idents[n.Meta()] = tok
	vt, ok := c.varTypes[n.Name]
	if !ok {
		return nil, fmt.Errorf("identifier %q has no resolvable type", n.Name)
	}
	return vt, nil
}

func checkRootCall(c *ctx, n *ast.RootCallExpr) (*types.Type, error) {
	if ds, ok := c.dataSources[n.Name]; ok {
		for _, a := range n.Args {
			if _, err := checkExpr(c, a); err != nil {
				return nil, err
			}
		}
		c.result.Idents[n.Meta()] = ds.Token
		return types.Simple(types.KBool), nil
	}
	return nil, fmt.Errorf("unknown call %q", n.Name)
}

func checkMethodCall(c *ctx, n *ast.MethodCallExpr) (*types.Type, error) {
	if baseVar, ok := n.Base.(*ast.VarExpr); ok {
		if _, isType := builtins[baseVar.Name]; isType {
			if _, isBound := c.scope.Lookup(baseVar.Name); !isBound {
				arrow, ok := dispatchStatic(baseVar.Name, n.Method)
				if !ok {
					return nil, fmt.Errorf("%s has no static method %q", baseVar.Name, n.Method)
				}
				return checkArgs(c, n.Args, arrow)
			}
		}
	}

	base, err := checkExpr(c, n.Base)
	if err != nil {
		return nil, err
	}

	if base.Kind == types.KRib || base.Kind == types.KTable {
		return dispatchDataSourceMethod(c, base, n)
	}

	arrow, ok := dispatchInstance(base, n.Method)
	if !ok {
		return nil, fmt.Errorf("%v has no method %q", base, n.Method)
	}
	return checkArgs(c, n.Args, arrow)
}

func dispatchDataSourceMethod(c *ctx, base *types.Type, n *ast.MethodCallExpr) (*types.Type, error) {
	switch n.Method {
	case "longest_match", "get":
		if (n.Method == "longest_match") != (base.Kind == types.KRib) {
			return nil, fmt.Errorf("%v has no method %q", base, n.Method)
		}
		for _, a := range n.Args {
			if _, err := checkExpr(c, a); err != nil {
				return nil, err
			}
		}
		return base.Of, nil
	case "contains":
		for _, a := range n.Args {
			if _, err := checkExpr(c, a); err != nil {
				return nil, err
			}
		}
		return types.Simple(types.KBool), nil
	default:
		return nil, fmt.Errorf("data source has no method %q", n.Method)
	}
}

func checkArgs(c *ctx, args []ast.Expr, arrow Arrow) (*types.Type, error) {
	if len(args) != len(arrow.Args) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(arrow.Args), len(args))
	}
	for i, a := range args {
		at, err := checkExpr(c, a)
		if err != nil {
			return nil, err
		}
		if !types.CoercesTo(at, arrow.Args[i]) {
			return nil, fmt.Errorf("argument %d: cannot use %v as %v", i, at, arrow.Args[i])
		}
	}
	ret := arrow.Ret
	if ret == nil {
		ret = types.Simple(types.KUnknown)
	}
	return ret, nil
}
