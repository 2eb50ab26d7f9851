package ast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bgpflow/filterlang/internal/debug"
	"golang.org/x/text/unicode/norm"
)

// compoundKeywords lists multi-word-with-hyphen keywords the lexer must
// recognize as a single token rather than identifier-minus-identifier.
var compoundKeywords = []string{
	"filter-map",
	"output-stream",
	"prefix-length-range",
}

// LexError is a lexical error at a specific byte offset.
type LexError struct {
	Span Span
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: lex error: %s", e.Span, e.Msg)
}

// Lexer turns a source buffer into a stream of Tokens, recording a Span for
// each in the shared Spans table.
type Lexer struct {
	file  string
	src   string
	pos   int
	spans *Spans
}

// NewLexer constructs a Lexer over src, attributed to file, recording spans
// into spans (shared across the whole compile unit).
func NewLexer(file, src string, spans *Spans) *Lexer {
	return &Lexer{file: file, src: src, spans: spans}
}

func (l *Lexer) span(start int) Span {
	return Span{File: l.file, Start: start, End: l.pos}
}

func (l *Lexer) emit(start int, kind TokenKind) Token {
	sp := l.span(start)
	tok := Token{Kind: kind, Text: l.src[start:l.pos], Meta: l.spans.New(sp)}
	debug.Log("lex", "%v %q @ %v", kind, tok.Text, sp)
	return tok
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func isIdentStart(b byte) bool {
	return unicode.IsLetter(rune(b)) || b == '_'
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// Next scans and returns the next token. At end of input it returns a TokEOF
// token forever.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return l.emit(l.pos, TokEOF), nil
	}

	start := l.pos
	c := l.peek()

	switch {
	case isIdentStart(c):
		return l.lexIdentOrKeyword(start)
	case isDigit(c):
		return l.lexNumberLike(start)
	case c == '"':
		return l.lexString(start)
	case c == '/':
		l.pos++
		for isDigit(l.peek()) {
			l.pos++
		}
		if l.pos == start+1 {
			return Token{}, &LexError{Span: l.span(start), Msg: "expected digits after '/'"}
		}
		return l.emit(start, TokPrefixLength), nil
	}

	return l.lexPunct(start)
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.src[l.pos] == '*' && l.peekAt(1) == '/') {
				l.pos++
			}
			l.pos += 2
		default:
			return
		}
	}
}

func (l *Lexer) lexIdentOrKeyword(start int) (Token, error) {
	for isIdentCont(l.peek()) {
		l.pos++
	}

	// Try to extend into one of the hyphenated compound keywords.
	for _, kw := range compoundKeywords {
		if strings.HasPrefix(kw, l.src[start:l.pos]) && l.peek() == '-' {
			save := l.pos
			if l.tryCompound(start, kw) {
				return l.emit(start, keywords[kw]), nil
			}
			l.pos = save
		}
	}

	text := l.src[start:l.pos]
	if text == "AS" || (len(text) >= 3 && strings.HasPrefix(text, "AS") && allDigits(text[2:])) {
		if allDigits(text[2:]) && len(text) > 2 {
			return l.emit(start, TokAsn), nil
		}
	}
	if kind, ok := keywords[text]; ok {
		return l.emit(start, kind), nil
	}
	return l.emit(start, TokIdent), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// tryCompound attempts to consume the remainder of a hyphenated keyword
// starting at start, given its head already matches. Returns true and
// advances l.pos past the full keyword on success.
func (l *Lexer) tryCompound(start int, kw string) bool {
	remaining := kw[l.pos-start:]
	for remaining != "" {
		if l.peek() != remaining[0] {
			return false
		}
		l.pos++
		remaining = remaining[1:]
	}
	return true
}

func (l *Lexer) lexNumberLike(start int) (Token, error) {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.pos += 2
		for isHexDigit(l.peek()) {
			l.pos++
		}
		return l.maybeCommunityOrLiteral(start, TokHex)
	}

	for isDigit(l.peek()) {
		l.pos++
	}

	// ASN literal spelled as bare digits is not supported; "AS<digits>" is
	// handled in lexIdentOrKeyword. Check for IPv4/community forms:
	// "x.y.z.w" or "x:y[:z]".
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		return l.lexIPv4(start)
	}
	if l.peek() == ':' {
		return l.maybeCommunityOrLiteral(start, TokInteger)
	}

	return l.emit(start, TokInteger), nil
}

func (l *Lexer) maybeCommunityOrLiteral(start int, bareKind TokenKind) (Token, error) {
	if l.peek() != ':' {
		return l.emit(start, bareKind), nil
	}
	save := l.pos
	l.pos++
	if !isDigit(l.peek()) && !(l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X')) {
		l.pos = save
		return l.emit(start, bareKind), nil
	}
	l.consumeCommunityPart()
	if l.peek() == ':' {
		l.pos++
		l.consumeCommunityPart()
	}
	return l.emit(start, TokCommunity), nil
}

func (l *Lexer) consumeCommunityPart() {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.pos += 2
		for isHexDigit(l.peek()) {
			l.pos++
		}
		return
	}
	for isDigit(l.peek()) {
		l.pos++
	}
}

func (l *Lexer) lexIPv4(start int) (Token, error) {
	groups := 1
	for l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.pos++
		for isDigit(l.peek()) {
			l.pos++
		}
		groups++
	}
	if groups != 4 {
		return Token{}, &LexError{Span: l.span(start), Msg: "malformed IPv4 address"}
	}
	return l.emit(start, TokIPAddress), nil
}

func (l *Lexer) lexString(start int) (Token, error) {
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, &LexError{Span: l.span(start), Msg: "unterminated string literal"}
	}
	l.pos++ // closing quote

	text := l.src[start:l.pos]
	if !utf8.ValidString(text) {
		return Token{}, &LexError{Span: l.span(start), Msg: "invalid UTF-8 in string literal"}
	}
	if !norm.NFC.IsNormalString(text) {
		return Token{}, &LexError{Span: l.span(start), Msg: "string literal is not NFC-normalized UTF-8"}
	}
	return l.emit(start, TokString), nil
}

func (l *Lexer) lexPunct(start int) (Token, error) {
	c := l.peek()
	two := func(second byte, yes, no TokenKind) (Token, error) {
		l.pos++
		if l.peek() == second {
			l.pos++
			return l.emit(start, yes), nil
		}
		return l.emit(start, no), nil
	}

	switch c {
	case '{':
		l.pos++
		return l.emit(start, TokLBrace), nil
	case '}':
		l.pos++
		return l.emit(start, TokRBrace), nil
	case '[':
		l.pos++
		return l.emit(start, TokLBracket), nil
	case ']':
		l.pos++
		return l.emit(start, TokRBracket), nil
	case '(':
		l.pos++
		return l.emit(start, TokLParen), nil
	case ')':
		l.pos++
		return l.emit(start, TokRParen), nil
	case ',':
		l.pos++
		return l.emit(start, TokComma), nil
	case ':':
		l.pos++
		return l.emit(start, TokColon), nil
	case ';':
		l.pos++
		return l.emit(start, TokSemi), nil
	case '.':
		l.pos++
		return l.emit(start, TokDot), nil
	case '-':
		l.pos++
		return l.emit(start, TokMinus), nil
	case '=':
		return two('=', TokEqEq, TokEq)
	case '!':
		return two('=', TokNeq, TokBang)
	case '<':
		return two('=', TokLe, TokLt)
	case '>':
		return two('=', TokGe, TokGt)
	case '&':
		l.pos++
		if l.peek() == '&' {
			l.pos++
			return l.emit(start, TokAndAnd), nil
		}
		return Token{}, &LexError{Span: l.span(start), Msg: "expected '&&'"}
	case '|':
		l.pos++
		if l.peek() == '|' {
			l.pos++
			return l.emit(start, TokOrOr), nil
		}
		return Token{}, &LexError{Span: l.span(start), Msg: "expected '||'"}
	}

	return Token{}, &LexError{Span: l.span(start), Msg: fmt.Sprintf("unexpected character %q", c)}
}
