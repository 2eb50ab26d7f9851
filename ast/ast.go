package ast

// Declaration is the sum type over top-level declarations: FilterMap,
// Filter, Rib, Table, OutputStream, RecordType. Every variant carries a
// MetaId resolvable to a Span via the compile unit's Spans table.
type Declaration interface {
	declNode()
	Meta() MetaId
	DeclName() string
}

// Param is a formal parameter (name, type) pair, used by filter-map
// parameter lists and by `define ... with (...)`.
type Param struct {
	Name string
	Type TypeExpr
	Meta MetaId
}

// TypeExpr is a parsed, not-yet-resolved type reference (a single
// identifier; there is no record/list shorthand). The type checker resolves it against declared
// RecordTypes and builtin primitive names.
type TypeExpr struct {
	Name string // builtin or named-record identifier
	Meta MetaId
}

// FilterMapDecl is a `filter-map` or `filter` unit.
type FilterMapDecl struct {
	Name     string
	IsFilter bool // true for `filter`, false for `filter-map`
	Params   []Param
	Define   *DefineBlock
	Terms    []*TermDecl
	Actions  []*ActionDecl
	Apply    *ApplyBlock
	NodeMeta MetaId
}

func (*FilterMapDecl) declNode()         {}
func (d *FilterMapDecl) Meta() MetaId     { return d.NodeMeta }
func (d *FilterMapDecl) DeclName() string { return d.Name }

// DefineBlock holds the rx/tx declarations, `use` clauses and local
// bindings of a filter-map's `define` section.
type DefineBlock struct {
	RxTx    []*RxTxDecl
	Uses    []*UseDecl
	Assigns []*AssignStmt
	Meta    MetaId
}

// RxTxKind distinguishes rx, tx, and combined rx_tx declarations.
type RxTxKind int

const (
	RxOnly RxTxKind = iota
	TxOnly
	RxTx
)

// RxTxDecl declares the rx and/or tx payload slot of a unit.
type RxTxDecl struct {
	Kind RxTxKind
	Name string
	Type TypeExpr
	Meta MetaId
}

// UseDecl is a `use rib <name>;` or `use table <name>;` clause binding a
// data source into scope.
type UseDecl struct {
	IsRib bool
	Name  string
	Meta  MetaId
}

// AssignStmt is a `name = expr;` local binding inside `define`.
type AssignStmt struct {
	Name string
	Expr Expr
	Meta MetaId
}

// TermDecl is a named boolean-expression block.
type TermDecl struct {
	Name    string
	Clauses []Expr
	Meta    MetaId
}

// ActionDecl is a named block of side-effecting statements.
type ActionDecl struct {
	Name  string
	Stmts []Stmt
	Meta  MetaId
}

// ApplyBlock is the ordered list of match arms plus an optional trailing
// default return.
type ApplyBlock struct {
	Arms    []*ApplyArm
	Default *ReturnKind // nil if the unit has no trailing bare return
	Meta    MetaId
}

// ReturnKind is `accept` or `reject`.
type ReturnKind int

const (
	ReturnAccept ReturnKind = iota
	ReturnReject
)

// ApplyArm is one `filter match <term> (matching|not matching) { ... }` arm.
type ApplyArm struct {
	Term    string
	Negate  bool // true for "not matching"
	Actions []string
	Return  *ReturnKind
	Meta    MetaId
}

// RibDecl is a `rib name contains T { fields }` declaration.
type RibDecl struct {
	Name      string
	Contains  string
	Fields    []Param
	KeyFields []string // from `with (field, ...)`, nil if not specified
	NodeMeta  MetaId
}

func (*RibDecl) declNode()         {}
func (d *RibDecl) Meta() MetaId     { return d.NodeMeta }
func (d *RibDecl) DeclName() string { return d.Name }

// TableDecl is a `table name contains T { fields }` declaration.
type TableDecl struct {
	Name      string
	Contains  string
	Fields    []Param
	KeyFields []string
	NodeMeta  MetaId
}

func (*TableDecl) declNode()         {}
func (d *TableDecl) Meta() MetaId     { return d.NodeMeta }
func (d *TableDecl) DeclName() string { return d.Name }

// OutputStreamDecl is an `output-stream name contains T { fields }`
// declaration.
type OutputStreamDecl struct {
	Name     string
	Contains string
	Fields   []Param
	NodeMeta MetaId
}

func (*OutputStreamDecl) declNode()         {}
func (d *OutputStreamDecl) Meta() MetaId     { return d.NodeMeta }
func (d *OutputStreamDecl) DeclName() string { return d.Name }

// RecordTypeDecl is a `type Name { fields }` declaration.
type RecordTypeDecl struct {
	Name     string
	Fields   []Param
	NodeMeta MetaId
}

func (*RecordTypeDecl) declNode()         {}
func (d *RecordTypeDecl) Meta() MetaId     { return d.NodeMeta }
func (d *RecordTypeDecl) DeclName() string { return d.Name }

// Stmt is a statement inside an action block.
type Stmt interface {
	stmtNode()
	Meta() MetaId
}

// SetFieldStmt is `rx.field.set(v);` — a write through the named receiver
// (rx or tx) to the nested field named by Path.
type SetFieldStmt struct {
	Receiver string
	Path     []string
	Value    Expr
	NodeMeta MetaId
}

func (*SetFieldStmt) stmtNode()     {}
func (s *SetFieldStmt) Meta() MetaId { return s.NodeMeta }

// SendStmt is `stream.send(record);` — emission onto an output stream.
type SendStmt struct {
	Stream   string
	Value    Expr
	NodeMeta MetaId
}

func (*SendStmt) stmtNode()     {}
func (s *SendStmt) Meta() MetaId { return s.NodeMeta }
