package ast

// Expr is the sum type over value-expression AST nodes.
type Expr interface {
	exprNode()
	Meta() MetaId
}

// IntLiteral is a decimal integer literal (unresolved until checked).
type IntLiteral struct {
	Value    int64
	NodeMeta MetaId
}

// HexLiteral is a `0x...` literal.
type HexLiteral struct {
	Value    uint64
	NodeMeta MetaId
}

// StringLiteral is a quoted string literal; Value is the text between the
// quotes, with backslash escapes kept as written.
type StringLiteral struct {
	Value    string
	NodeMeta MetaId
}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	Value    bool
	NodeMeta MetaId
}

// AsnLiteral is an `AS<digits>` literal.
type AsnLiteral struct {
	Value    uint32
	NodeMeta MetaId
}

// IPLiteral is a dotted-quad IPv4 address literal; the lexer has no
// colon-form (IPv6) address token.
type IPLiteral struct {
	Value    string
	NodeMeta MetaId
}

// PrefixLenLiteral is a `/<digits>` literal.
type PrefixLenLiteral struct {
	Value    int
	NodeMeta MetaId
}

// CommunityLiteral is an `x:y[:z]` community literal, kept as raw text; the
// type checker/lowering pass parses its parts.
type CommunityLiteral struct {
	Raw      string
	NodeMeta MetaId
}

// ListExpr is `[e1, e2, ...]`.
type ListExpr struct {
	Elems    []Expr
	NodeMeta MetaId
}

// RecordField is one `name: value` pair inside a record literal.
type RecordField struct {
	Name  string
	Value Expr
}

// RecordExpr is a typed (`Name { ... }`) or anonymous (`{ ... }`) record
// literal. TypeName is empty for the anonymous form.
type RecordExpr struct {
	TypeName string
	Fields   []RecordField
	NodeMeta MetaId
}

// VarExpr is a bare identifier reference (variable, argument, data source,
// stream, term or action name, resolved later by the symbol pass).
type VarExpr struct {
	Name     string
	NodeMeta MetaId
}

// RootCallExpr is `Identifier '(' ArgList ')'` at the root of a value
// expression, e.g. a data-source method called without a receiver prefix,
// or a static/type-level method.
type RootCallExpr struct {
	Name     string
	Args     []Expr
	NodeMeta MetaId
}

// FieldAccessExpr is one or more consecutive `.field` hops collapsed into a
// single node, per the parser's AccessExpr-collapsing rule.
type FieldAccessExpr struct {
	Base     Expr
	Fields   []string
	NodeMeta MetaId
}

// MethodCallExpr is `.method(args)`, breaking a field-access chain.
type MethodCallExpr struct {
	Base     Expr
	Method   string
	Args     []Expr
	NodeMeta MetaId
}

// PrefixMatchOp enumerates the prefix-match tail operators.
type PrefixMatchOp int

const (
	MatchExact PrefixMatchOp = iota
	MatchLonger
	MatchOrLonger
	MatchPrefixLenRange
	MatchUpTo
	MatchNetmask
)

// PrefixMatchExpr applies a prefix-match tail operator (`longer`,
// `prefix-length-range /8-/24`, `upto /24`, `netmask 255.255.0.0`, ...) to a
// preceding literal base; the parser never attaches a tail to an
// identifier-rooted base such as `route.prefix`.
type PrefixMatchExpr struct {
	Base     Expr
	Op       PrefixMatchOp
	Lo, Hi   int    // for MatchPrefixLenRange/MatchUpTo
	Netmask  string // for MatchNetmask
	NodeMeta MetaId
}

// BinOp enumerates comparison operators. The operator's meaning is taken
// from the grammar production that parsed it, never inferred from how it is
// displayed.
type BinOp int

const (
	OpEq BinOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// BinaryExpr is a comparison `a OP b`.
type BinaryExpr struct {
	Op       BinOp
	Left     Expr
	Right    Expr
	NodeMeta MetaId
}

// LogicalOp enumerates `&&` and `||`.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// LogicalExpr is `a && b` or `a || b`, short-circuiting at lowering time.
type LogicalExpr struct {
	Op       LogicalOp
	Left     Expr
	Right    Expr
	NodeMeta MetaId
}

// NotExpr is `!a`.
type NotExpr struct {
	Operand  Expr
	NodeMeta MetaId
}

// InExpr is `a in L` (Negate=false) or `a not in L` (Negate=true).
type InExpr struct {
	Value    Expr
	List     Expr
	Negate   bool
	NodeMeta MetaId
}

func (*IntLiteral) exprNode()        {}
func (*HexLiteral) exprNode()        {}
func (*StringLiteral) exprNode()     {}
func (*BoolLiteral) exprNode()       {}
func (*AsnLiteral) exprNode()        {}
func (*IPLiteral) exprNode()         {}
func (*PrefixLenLiteral) exprNode()  {}
func (*CommunityLiteral) exprNode()  {}
func (*ListExpr) exprNode()          {}
func (*RecordExpr) exprNode()        {}
func (*VarExpr) exprNode()           {}
func (*RootCallExpr) exprNode()      {}
func (*FieldAccessExpr) exprNode()   {}
func (*MethodCallExpr) exprNode()    {}
func (*PrefixMatchExpr) exprNode()   {}
func (*BinaryExpr) exprNode()        {}
func (*LogicalExpr) exprNode()       {}
func (*NotExpr) exprNode()           {}
func (*InExpr) exprNode()            {}

func (e *IntLiteral) Meta() MetaId       { return e.NodeMeta }
func (e *HexLiteral) Meta() MetaId       { return e.NodeMeta }
func (e *StringLiteral) Meta() MetaId    { return e.NodeMeta }
func (e *BoolLiteral) Meta() MetaId      { return e.NodeMeta }
func (e *AsnLiteral) Meta() MetaId       { return e.NodeMeta }
func (e *IPLiteral) Meta() MetaId        { return e.NodeMeta }
func (e *PrefixLenLiteral) Meta() MetaId { return e.NodeMeta }
func (e *CommunityLiteral) Meta() MetaId { return e.NodeMeta }
func (e *ListExpr) Meta() MetaId         { return e.NodeMeta }
func (e *RecordExpr) Meta() MetaId       { return e.NodeMeta }
func (e *VarExpr) Meta() MetaId          { return e.NodeMeta }
func (e *RootCallExpr) Meta() MetaId     { return e.NodeMeta }
func (e *FieldAccessExpr) Meta() MetaId  { return e.NodeMeta }
func (e *MethodCallExpr) Meta() MetaId   { return e.NodeMeta }
func (e *PrefixMatchExpr) Meta() MetaId  { return e.NodeMeta }
func (e *BinaryExpr) Meta() MetaId       { return e.NodeMeta }
func (e *LogicalExpr) Meta() MetaId      { return e.NodeMeta }
func (e *NotExpr) Meta() MetaId          { return e.NodeMeta }
func (e *InExpr) Meta() MetaId           { return e.NodeMeta }
