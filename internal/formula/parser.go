// Package formula compiles the arithmetic expressions used by Calculate and
// by computed replacements in search. An expression evaluates to a float64;
// names and functions the package does not define are resolved through an
// Env supplied at evaluation time.
package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("formula syntax error")

// TokenType is the type of a token in a formula.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenCapture // $n
	TokenOp
	TokenLParen
	TokenRParen
	TokenComma
	TokenQuestion
	TokenColon
)

// Token is a single token of a formula.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Tokenizer splits a formula into tokens.
type Tokenizer struct {
	input string
	pos   int
}

// NewTokenizer creates a tokenizer for input.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// operators, longest first.
var operators = []string{"==", "!=", "<>", "<=", ">=", "&&", "||", "+", "-", "*", "/", "%", "^", "<", ">", "=", "!"}

// NextToken returns the next token.
func (t *Tokenizer) NextToken() (Token, error) {
	t.skipWhitespace()
	if t.pos >= len(t.input) {
		return Token{Type: TokenEOF, Pos: t.pos}, nil
	}
	start := t.pos
	ch := t.input[t.pos]
	switch {
	case ch == '(':
		t.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case ch == ')':
		t.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case ch == ',':
		t.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case ch == '?':
		t.pos++
		return Token{Type: TokenQuestion, Value: "?", Pos: start}, nil
	case ch == ':':
		t.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}, nil
	case ch == '$':
		return t.readCapture()
	case isDigit(ch) || ch == '.':
		return t.readNumber()
	case isIdentStart(ch):
		for t.pos < len(t.input) && isIdentPart(t.input[t.pos]) {
			t.pos++
		}
		return Token{Type: TokenIdent, Value: t.input[start:t.pos], Pos: start}, nil
	}
	for _, op := range operators {
		if strings.HasPrefix(t.input[t.pos:], op) {
			t.pos += len(op)
			return Token{Type: TokenOp, Value: op, Pos: start}, nil
		}
	}
	return Token{}, fmt.Errorf("%w: unexpected character %q at %d", ErrSyntax, ch, start)
}

// AllTokens returns all tokens in the input, ending with TokenEOF.
func (t *Tokenizer) AllTokens() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := t.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && strings.IndexByte(" \t\r\n", t.input[t.pos]) >= 0 {
		t.pos++
	}
}

func (t *Tokenizer) readNumber() (Token, error) {
	start := t.pos
	for t.pos < len(t.input) && (isDigit(t.input[t.pos]) || t.input[t.pos] == '.') {
		t.pos++
	}
	if t.pos < len(t.input) && (t.input[t.pos] == 'e' || t.input[t.pos] == 'E') {
		save := t.pos
		t.pos++
		if t.pos < len(t.input) && (t.input[t.pos] == '+' || t.input[t.pos] == '-') {
			t.pos++
		}
		if t.pos < len(t.input) && isDigit(t.input[t.pos]) {
			for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
				t.pos++
			}
		} else {
			t.pos = save
		}
	}
	text := t.input[start:t.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return Token{}, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, text, start)
	}
	return Token{Type: TokenNumber, Value: text, Pos: start}, nil
}

func (t *Tokenizer) readCapture() (Token, error) {
	start := t.pos
	t.pos++ // skip $
	digits := t.pos
	for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
		t.pos++
	}
	if t.pos == digits {
		return Token{}, fmt.Errorf("%w: expected a group number after $ at %d", ErrSyntax, start)
	}
	return Token{Type: TokenCapture, Value: t.input[digits:t.pos], Pos: start}, nil
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isIdentStart(c byte) bool {
	lower := c | 0x20
	return c == '_' || lower >= 'a' && lower <= 'z'
}

// Parser builds an expression tree from tokens.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse compiles source into a Program.
func Parse(source string) (*Program, error) {
	tokens, err := NewTokenizer(source).AllTokens()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	if p.currentToken().Type == TokenEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	root, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if tok := p.currentToken(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %q", tok.Value)
	}
	return &Program{source: source, root: root}, nil
}

func (p *Parser) currentToken() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) isOp(ops ...string) (string, bool) {
	tok := p.currentToken()
	if tok.Type == TokenIdent {
		switch strings.ToLower(tok.Value) {
		case "and":
			tok.Value = "&&"
		case "or":
			tok.Value = "||"
		case "not":
			tok.Value = "!"
		default:
			return "", false
		}
	} else if tok.Type != TokenOp {
		return "", false
	}
	for _, op := range ops {
		if tok.Value == op {
			return op, true
		}
	}
	return "", false
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	if tok.Type == TokenEOF {
		return fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	return fmt.Errorf("%w: %s at %d", ErrSyntax, fmt.Sprintf(format, args...), tok.Pos)
}

// Precedence, lowest first: ?:, ||, &&, comparisons, + -, * / %, unary, ^.

func (p *Parser) parseConditional() (Node, error) {
	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.currentToken().Type != TokenQuestion {
		return test, nil
	}
	p.advance() // consume ?
	then, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if tok := p.currentToken(); tok.Type != TokenColon {
		return nil, p.errorf(tok, "expected ':', got %q", tok.Value)
	}
	p.advance() // consume :
	otherwise, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &Cond{Test: test, Then: then, Else: otherwise}, nil
}

func (p *Parser) parseBinary(next func() (Node, error), ops ...string) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp(ops...)
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *Parser) parseOr() (Node, error) {
	return p.parseBinary(p.parseAnd, "||")
}

func (p *Parser) parseAnd() (Node, error) {
	return p.parseBinary(p.parseComparison, "&&")
}

func (p *Parser) parseComparison() (Node, error) {
	return p.parseBinary(p.parseAdditive, "==", "=", "!=", "<>", "<=", ">=", "<", ">")
}

func (p *Parser) parseAdditive() (Node, error) {
	return p.parseBinary(p.parseMultiplicative, "+", "-")
}

func (p *Parser) parseMultiplicative() (Node, error) {
	return p.parseBinary(p.parseUnary, "*", "/", "%")
}

func (p *Parser) parseUnary() (Node, error) {
	if op, ok := p.isOp("-", "+", "!"); ok {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePower()
}

// parsePower is right associative and binds tighter than unary minus on its
// left: -2^2 is -(2^2), 2^-1 is 2^(-1).
func (p *Parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOp("^"); !ok {
		return base, nil
	}
	p.advance()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: "^", L: base, R: exp}, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.currentToken()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Value, 64)
		return &Number{Value: v}, nil

	case TokenCapture:
		p.advance()
		n, err := strconv.Atoi(tok.Value)
		if err != nil {
			return nil, p.errorf(tok, "bad group number %q", tok.Value)
		}
		return &Call{Name: "reg", Args: []Node{&Number{Value: float64(n)}}}, nil

	case TokenIdent:
		p.advance()
		if p.currentToken().Type != TokenLParen {
			return &Var{Name: tok.Value}, nil
		}
		p.advance() // consume (
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Name: tok.Value, Args: args}, nil

	case TokenLParen:
		p.advance() // consume (
		expr, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		if tok := p.currentToken(); tok.Type != TokenRParen {
			return nil, p.errorf(tok, "expected ')', got %q", tok.Value)
		}
		p.advance() // consume )
		return expr, nil
	}
	return nil, p.errorf(tok, "unexpected %q", tok.Value)
}

func (p *Parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.currentToken().Type == TokenRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch tok := p.currentToken(); tok.Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return args, nil
		default:
			return nil, p.errorf(tok, "expected ',' or ')', got %q", tok.Value)
		}
	}
}
