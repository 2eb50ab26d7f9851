package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bgpflow/filterlang/internal/debug"
)

// ParseError is the first parse error encountered; the parser is total on
// failure and does not attempt multi-error recovery.
type ParseError struct {
	Span Span
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// Program is the parsed output of one source file: an ordered list of
// top-level declarations plus the Spans table built while parsing.
type Program struct {
	Decls []Declaration
	Spans *Spans
}

// Parser is a recursive-descent parser over a token stream produced by a
// Lexer.
type Parser struct {
	lex  *Lexer
	cur  Token
	file string
	err  error
}

// Parse lexes and parses src (attributed to file) into a Program. Returns
// the first lexical or syntax error encountered, with no recovery.
func Parse(file, src string) (*Program, error) {
	spans := &Spans{}
	p := &Parser{lex: NewLexer(file, src, spans), file: file}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var decls []Declaration
	for p.cur.Kind != TokEOF {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return &Program{Decls: decls, Spans: spans}, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Span: p.lex.span(p.lex.pos), Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.cur.Kind != kind {
		return Token{}, &ParseError{
			Span: p.lex.spans.Get(p.cur.Meta),
			Msg:  fmt.Sprintf("expected %v, found %v %q", kind, p.cur.Kind, p.cur.Text),
		}
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) at(kind TokenKind) bool { return p.cur.Kind == kind }

func (p *Parser) parseDecl() (Declaration, error) {
	switch p.cur.Kind {
	case TokFilterMap, TokFilter:
		return p.parseFilterMap()
	case TokRib:
		return p.parseRib()
	case TokTable:
		return p.parseTable()
	case TokOutputStream:
		return p.parseOutputStream()
	case TokType:
		return p.parseRecordType()
	default:
		return nil, p.errorf("expected a declaration, found %v %q", p.cur.Kind, p.cur.Text)
	}
}

func (p *Parser) parseIdent() (string, MetaId, error) {
	tok, err := p.expect(TokIdent)
	if err != nil {
		return "", 0, err
	}
	return tok.Text, tok.Meta, nil
}

func (p *Parser) parseFilterMap() (*FilterMapDecl, error) {
	start := p.cur.Meta
	isFilter := p.cur.Kind == TokFilter
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	decl := &FilterMapDecl{Name: name, IsFilter: isFilter, NodeMeta: start}

	if p.at(TokWith) {
		params, err := p.parseParamsWith()
		if err != nil {
			return nil, err
		}
		decl.Params = params
	}

	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}

	define, err := p.parseDefine()
	if err != nil {
		return nil, err
	}
	decl.Define = define

	for p.at(TokTerm) {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		decl.Terms = append(decl.Terms, t)
	}
	for p.at(TokAction) {
		a, err := p.parseAction()
		if err != nil {
			return nil, err
		}
		decl.Actions = append(decl.Actions, a)
	}

	apply, err := p.parseApply()
	if err != nil {
		return nil, err
	}
	decl.Apply = apply

	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	debug.Log("parse", "filter-map %s (filter=%v)", name, isFilter)
	return decl, nil
}

func (p *Parser) parseParamsWith() ([]Param, error) {
	if err := p.advance(); err != nil { // consume 'with'
		return nil, err
	}
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var params []Param
	for !p.at(TokRParen) {
		name, meta, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: name, Type: ty, Meta: meta})
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseTypeExpr() (TypeExpr, error) {
	tok, err := p.expect(TokIdent)
	if err != nil {
		return TypeExpr{}, err
	}
	return TypeExpr{Name: tok.Text, Meta: tok.Meta}, nil
}

func (p *Parser) parseDefine() (*DefineBlock, error) {
	start := p.cur.Meta
	if _, err := p.expect(TokDefine); err != nil {
		return nil, err
	}
	if p.at(TokFor) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, _, err := p.parseIdent(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		if _, err := p.parseTypeExpr(); err != nil {
			return nil, err
		}
	}
	if p.at(TokWith) {
		if _, err := p.parseParamsWith(); err != nil {
			return nil, err
		}
	}

	d := &DefineBlock{Meta: start}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	for !p.at(TokRBrace) {
		switch p.cur.Kind {
		case TokUse:
			u, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			d.Uses = append(d.Uses, u)
		case TokIdent:
			a, err := p.parseRxTxOrAssign()
			if err != nil {
				return nil, err
			}
			switch v := a.(type) {
			case *RxTxDecl:
				d.RxTx = append(d.RxTx, v)
			case *AssignStmt:
				d.Assigns = append(d.Assigns, v)
			}
		default:
			return nil, p.errorf("unexpected token %v %q in define block", p.cur.Kind, p.cur.Text)
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseUse() (*UseDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil { // 'use'
		return nil, err
	}
	isRib := p.at(TokRib)
	if !isRib && !p.at(TokTable) {
		return nil, p.errorf("expected 'rib' or 'table' after 'use'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return &UseDecl{IsRib: isRib, Name: name, Meta: meta}, nil
}

// parseRxTxOrAssign disambiguates `rx_tx|rx|tx NAME : TYPE ;` from
// `NAME = expr ;` by inspecting the identifier's text.
func (p *Parser) parseRxTxOrAssign() (any, error) {
	meta := p.cur.Meta
	ident := p.cur.Text
	switch ident {
	case "rx_tx", "rx", "tx":
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		kind := RxOnly
		switch ident {
		case "tx":
			kind = TxOnly
		case "rx_tx":
			kind = RxTx
		}
		return &RxTxDecl{Kind: kind, Name: name, Type: ty, Meta: meta}, nil
	default:
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokEq); err != nil {
			return nil, err
		}
		val, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		return &AssignStmt{Name: name, Expr: val, Meta: meta}, nil
	}
}

func (p *Parser) parseTerm() (*TermDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil { // 'term'
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if p.at(TokFor) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, _, err := p.parseIdent(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		if _, err := p.parseTypeExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokMatch); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var clauses []Expr
	for !p.at(TokRBrace) {
		e, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, e)
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return &TermDecl{Name: name, Clauses: clauses, Meta: meta}, nil
}

func (p *Parser) parseAction() (*ActionDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil { // 'action'
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.at(TokRBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return &ActionDecl{Name: name, Stmts: stmts, Meta: meta}, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	meta := p.cur.Meta
	recv, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	var path []string
	for p.at(TokDot) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		field, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if p.at(TokLParen) {
			// Terminal call: .set(v) or .send(v).
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokSemi); err != nil {
				return nil, err
			}
			switch field {
			case "set":
				if len(args) != 1 {
					return nil, p.errorf("set() takes exactly one argument")
				}
				return &SetFieldStmt{Receiver: recv, Path: path, Value: args[0], NodeMeta: meta}, nil
			case "send":
				if len(args) != 1 {
					return nil, p.errorf("send() takes exactly one argument")
				}
				return &SendStmt{Stream: recv, Value: args[0], NodeMeta: meta}, nil
			default:
				return nil, p.errorf("unknown action statement %q", field)
			}
		}
		path = append(path, field)
	}
	return nil, p.errorf("expected '.set(...)' or '.send(...)' statement")
}

func (p *Parser) parseApply() (*ApplyBlock, error) {
	meta := p.cur.Meta
	if _, err := p.expect(TokApply); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	block := &ApplyBlock{Meta: meta}
	for !p.at(TokRBrace) {
		if p.at(TokReturn) {
			rk, err := p.parseBareReturn()
			if err != nil {
				return nil, err
			}
			block.Default = &rk
			continue
		}
		arm, err := p.parseApplyArm()
		if err != nil {
			return nil, err
		}
		block.Arms = append(block.Arms, arm)
		if p.at(TokSemi) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseBareReturn() (ReturnKind, error) {
	if err := p.advance(); err != nil { // 'return'
		return 0, err
	}
	var kind ReturnKind
	switch p.cur.Kind {
	case TokAccept:
		kind = ReturnAccept
	case TokReject:
		kind = ReturnReject
	default:
		return 0, p.errorf("expected 'accept' or 'reject' after 'return'")
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return 0, err
	}
	return kind, nil
}

func (p *Parser) parseApplyArm() (*ApplyArm, error) {
	meta := p.cur.Meta
	if _, err := p.expect(TokFilter); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokMatch); err != nil {
		return nil, err
	}
	termName, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	negate := false
	switch p.cur.Kind {
	case TokMatching:
		if err := p.advance(); err != nil {
			return nil, err
		}
	case TokNotWord:
		negate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokMatching); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("expected 'matching' or 'not matching'")
	}

	arm := &ArmBuilder{Term: termName, Negate: negate, Meta: meta}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	for !p.at(TokRBrace) {
		if p.at(TokReturn) {
			rk, err := p.parseBareReturn()
			if err != nil {
				return nil, err
			}
			arm.Return = &rk
			continue
		}
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		arm.Actions = append(arm.Actions, name)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return arm.Build(), nil
}

// ArmBuilder accumulates an ApplyArm's pieces while parsing.
type ArmBuilder struct {
	Term    string
	Negate  bool
	Actions []string
	Return  *ReturnKind
	Meta    MetaId
}

// Build finalizes the arm.
func (b *ArmBuilder) Build() *ApplyArm {
	return &ApplyArm{Term: b.Term, Negate: b.Negate, Actions: b.Actions, Return: b.Return, Meta: b.Meta}
}

func (p *Parser) parseFieldList() ([]Param, error) {
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var fields []Param
	for !p.at(TokRBrace) {
		name, meta, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Param{Name: name, Type: ty, Meta: meta})
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) parseKeyFieldsWith() ([]string, error) {
	if !p.at(TokWith) {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var keys []string
	for !p.at(TokRParen) {
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		keys = append(keys, name)
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *Parser) parseRib() (*RibDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokContains); err != nil {
		return nil, err
	}
	contains, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	keys, err := p.parseKeyFieldsWith()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return &RibDecl{Name: name, Contains: contains, Fields: fields, KeyFields: keys, NodeMeta: meta}, nil
}

func (p *Parser) parseTable() (*TableDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokContains); err != nil {
		return nil, err
	}
	contains, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	keys, err := p.parseKeyFieldsWith()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return &TableDecl{Name: name, Contains: contains, Fields: fields, KeyFields: keys, NodeMeta: meta}, nil
}

func (p *Parser) parseOutputStream() (*OutputStreamDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokContains); err != nil {
		return nil, err
	}
	contains, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return &OutputStreamDecl{Name: name, Contains: contains, Fields: fields, NodeMeta: meta}, nil
}

func (p *Parser) parseRecordType() (*RecordTypeDecl, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return &RecordTypeDecl{Name: name, Fields: fields, NodeMeta: meta}, nil
}

// --- Value expression grammar ---

func (p *Parser) parseBoolExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(TokOrOr) {
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: OpOr, Left: left, Right: right, NodeMeta: meta}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(TokAndAnd) {
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: OpAnd, Left: left, Right: right, NodeMeta: meta}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.at(TokBang) {
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand, NodeMeta: meta}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseValueExpr()
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case TokEqEq, TokNeq, TokLt, TokLe, TokGt, TokGe:
		op := map[TokenKind]BinOp{
			TokEqEq: OpEq, TokNeq: OpNe, TokLt: OpLt, TokLe: OpLe, TokGt: OpGt, TokGe: OpGe,
		}[p.cur.Kind]
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right, NodeMeta: meta}, nil
	case TokIn:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		list, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &InExpr{Value: left, List: list, NodeMeta: meta}, nil
	case TokNotWord:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokIn); err != nil {
			return nil, err
		}
		list, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &InExpr{Value: left, List: list, Negate: true, NodeMeta: meta}, nil
	}
	return left, nil
}

// parseValueExpr parses the ValueExpr grammar production.
func (p *Parser) parseValueExpr() (Expr, error) {
	meta := p.cur.Meta

	switch p.cur.Kind {
	case TokLBracket:
		return p.parseListExpr()
	case TokLBrace:
		return p.parseRecordLiteral("")
	case TokIdent:
		return p.parseIdentLed()
	case TokInteger:
		v, err := strconv.ParseInt(p.cur.Text, 10, 64)
		if err != nil {
			return nil, p.errorf("malformed integer literal %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&IntLiteral{Value: v, NodeMeta: meta})
	case TokHex:
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(p.cur.Text, "0x"), "0X"), 16, 64)
		if err != nil {
			return nil, p.errorf("malformed hex literal %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&HexLiteral{Value: v, NodeMeta: meta})
	case TokString:
		text := p.cur.Text
		unquoted := text[1 : len(text)-1]
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&StringLiteral{Value: unquoted, NodeMeta: meta})
	case TokBool:
		v := p.cur.Text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&BoolLiteral{Value: v, NodeMeta: meta})
	case TokAsn:
		n, err := strconv.ParseUint(p.cur.Text[2:], 10, 32)
		if err != nil {
			return nil, p.errorf("malformed ASN literal %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&AsnLiteral{Value: uint32(n), NodeMeta: meta})
	case TokIPAddress:
		v := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&IPLiteral{Value: v, NodeMeta: meta})
	case TokPrefixLength:
		n, err := strconv.Atoi(p.cur.Text[1:])
		if err != nil {
			return nil, p.errorf("malformed prefix length %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&PrefixLenLiteral{Value: n, NodeMeta: meta})
	case TokCommunity:
		raw := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseAccessOrTail(&CommunityLiteral{Raw: raw, NodeMeta: meta})
	}
	return nil, p.errorf("expected a value expression, found %v %q", p.cur.Kind, p.cur.Text)
}

func (p *Parser) parseListExpr() (Expr, error) {
	meta := p.cur.Meta
	if err := p.advance(); err != nil { // '['
		return nil, err
	}
	var elems []Expr
	for !p.at(TokRBracket) {
		e, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	return &ListExpr{Elems: elems, NodeMeta: meta}, nil
}

func (p *Parser) parseRecordLiteral(typeName string) (Expr, error) {
	meta := p.cur.Meta
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var fields []RecordField
	for !p.at(TokRBrace) {
		name, _, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		val, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, RecordField{Name: name, Value: val})
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return &RecordExpr{TypeName: typeName, Fields: fields, NodeMeta: meta}, nil
}

// parseIdentLed parses the three identifier-rooted ValueExpr alternatives:
// typed record literal, root call, or var + access chain.
func (p *Parser) parseIdentLed() (Expr, error) {
	name, meta, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case TokLBrace:
		return p.parseRecordLiteral(name)
	case TokLParen:
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return p.parseAccessExpr(&RootCallExpr{Name: name, Args: args, NodeMeta: meta})
	default:
		return p.parseAccessExpr(&VarExpr{Name: name, NodeMeta: meta})
	}
}

func (p *Parser) parseArgList() ([]Expr, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.at(TokRParen) {
		e, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

// parseAccessOrTail parses, for a Literal base, either the PrefixMatchTail
// alternative or a trailing AccessExpr chain — grammar:
// Literal (PrefixMatchTail | AccessExpr). Only a Literal may carry a
// PrefixMatchTail; an Identifier base goes through parseAccessExpr instead,
// which never recognizes one.
func (p *Parser) parseAccessOrTail(base Expr) (Expr, error) {
	switch p.cur.Kind {
	case TokExact:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &PrefixMatchExpr{Base: base, Op: MatchExact, NodeMeta: meta}, nil
	case TokLonger:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &PrefixMatchExpr{Base: base, Op: MatchLonger, NodeMeta: meta}, nil
	case TokOrLonger:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &PrefixMatchExpr{Base: base, Op: MatchOrLonger, NodeMeta: meta}, nil
	case TokPrefixLenRange:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		lo, err := p.expect(TokPrefixLength)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokMinus); err != nil {
			return nil, err
		}
		hi, err := p.expect(TokPrefixLength)
		if err != nil {
			return nil, err
		}
		loN, _ := strconv.Atoi(lo.Text[1:])
		hiN, _ := strconv.Atoi(hi.Text[1:])
		return &PrefixMatchExpr{Base: base, Op: MatchPrefixLenRange, Lo: loN, Hi: hiN, NodeMeta: meta}, nil
	case TokUpTo:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		hi, err := p.expect(TokPrefixLength)
		if err != nil {
			return nil, err
		}
		hiN, _ := strconv.Atoi(hi.Text[1:])
		return &PrefixMatchExpr{Base: base, Op: MatchUpTo, Hi: hiN, NodeMeta: meta}, nil
	case TokNetmask:
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		ip, err := p.expect(TokIPAddress)
		if err != nil {
			return nil, err
		}
		return &PrefixMatchExpr{Base: base, Op: MatchNetmask, Netmask: ip.Text, NodeMeta: meta}, nil
	}

	return p.parseAccessExpr(base)
}

// parseAccessExpr parses a trailing AccessExpr chain (collapsing consecutive
// field accesses into one FieldAccessExpr) for an Identifier-rooted base —
// grammar: Identifier AccessExpr. Unlike parseAccessOrTail, it never
// recognizes a PrefixMatchTail; only a Literal base may carry one.
//
// AccessExpr ::= ( '.' ( Identifier '(' ArgList ')' | Identifier+ ) )*
func (p *Parser) parseAccessExpr(base Expr) (Expr, error) {
	cur := base
	var pendingFields []string
	flush := func(meta MetaId) {
		if len(pendingFields) > 0 {
			cur = &FieldAccessExpr{Base: cur, Fields: pendingFields, NodeMeta: meta}
			pendingFields = nil
		}
	}
	for p.at(TokDot) {
		meta := p.cur.Meta
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, fieldMeta, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if p.at(TokLParen) {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			flush(meta)
			cur = &MethodCallExpr{Base: cur, Method: name, Args: args, NodeMeta: fieldMeta}
			continue
		}
		pendingFields = append(pendingFields, name)
	}
	flush(base.Meta())
	return cur, nil
}
