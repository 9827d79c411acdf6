package expr

import (
	"strings"

	"github.com/quickdata/qexpr/pkg/types"
)

// Parser is a recursive descent parser for expressions.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses a complete expression string into an AST. It performs no
// evaluation and calls no host code; a malformed input yields a parse
// error with the byte offset of the offending token.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, types.NewParseError(0, "empty expression")
	}

	lexer := NewLexer(input)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenEOF {
		return nil, types.NewParseError(p.current().Pos, "unexpected token %s", p.current().Type)
	}

	return node, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming it.
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes a token of the expected type or returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, types.NewParseError(tok.Pos, "expected %s, got %s", tt, tok.Type)
	}
	p.advance()
	return tok, nil
}

// parseExpression is the entry point: handles the lowest precedence level.
// Precedence (low to high):
//
//	?: (ternary)
//	or, ||
//	and, &&
//	not
//	in, not in
//	==, !=, <, >, <=, >=
//	+, -
//	*, /, %
//	unary -, unary not/!
//	** (right-associative)
//	property access, index, function call
func (p *Parser) parseExpression() (Node, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenQuestion {
		return cond, nil
	}
	p.advance()

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	// Right-associative: a ? b : c ? d : e groups the second conditional
	// into the else branch.
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &TernaryNode{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: TokenOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (Node, error) {
	if p.current().Type == TokenNot {
		// "not in" is handled by parseComparison.
		if p.peek().Type == TokenIn {
			return p.parseComparison()
		}
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: TokenNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte:
		op := p.advance().Type
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: op, Left: left, Right: right}, nil
	case TokenIn:
		p.advance()
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		return &InNode{Value: left, Container: right}, nil
	case TokenNot:
		if p.peek().Type == TokenIn {
			p.advance() // consume 'not'
			p.advance() // consume 'in'
			right, err := p.parseAddition()
			if err != nil {
				return nil, err
			}
			return &InNode{Value: left, Container: right, Negated: true}, nil
		}
	}

	return left, nil
}

func (p *Parser) parseAddition() (Node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.advance().Type
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplication() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenStar || p.current().Type == TokenSlash ||
		p.current().Type == TokenPercent {
		op := p.advance().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.current().Type == TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: TokenMinus, Operand: operand}, nil
	}
	if p.current().Type == TokenNot {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: TokenNot, Operand: operand}, nil
	}
	return p.parsePower()
}

// parsePower handles **, which binds tighter than unary on its left side
// and is right-associative. The exponent re-enters parseUnary so that
// 2 ** -3 parses and -2 ** 2 is -(2**2).
func (p *Parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenPower {
		return base, nil
	}
	p.advance()

	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: TokenPower, Left: base, Right: exponent}, nil
}

func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenDot:
			p.advance()
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, types.NewParseError(p.current().Pos, "expected property name after '.'")
			}
			node = &PropertyNode{Object: node, Property: name.Value}
		case TokenLBracket:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			node = &IndexNode{Object: node, Index: index}
		case TokenLParen:
			// Call targets must be static names: a bare identifier or a
			// dotted chain of identifiers.
			name := callName(node)
			if name == "" {
				return nil, types.NewParseError(p.current().Pos, "expression is not callable")
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			node = &CallNode{Name: name, Args: args}
		default:
			return node, nil
		}
	}
}

// callName extracts the dotted function name from an ident/property chain,
// or "" if the node is not a static name.
func callName(node Node) string {
	switch n := node.(type) {
	case *IdentNode:
		return n.Name
	case *PropertyNode:
		base := callName(n.Object)
		if base == "" {
			return ""
		}
		return base + "." + n.Property
	default:
		return ""
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenInt:
		p.advance()
		return &LiteralNode{TokenType: TokenInt, IntVal: tok.IntVal}, nil
	case TokenFloat:
		p.advance()
		return &LiteralNode{TokenType: TokenFloat, FloatVal: tok.FloatVal}, nil
	case TokenString:
		p.advance()
		return &LiteralNode{TokenType: TokenString, StrVal: tok.StrVal}, nil
	case TokenTrue:
		p.advance()
		return &LiteralNode{TokenType: TokenTrue, BoolVal: true}, nil
	case TokenFalse:
		p.advance()
		return &LiteralNode{TokenType: TokenFalse, BoolVal: false}, nil
	case TokenNull:
		p.advance()
		return &LiteralNode{TokenType: TokenNull}, nil
	case TokenIdent:
		p.advance()
		return &IdentNode{Name: tok.Value}, nil
	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenLBracket:
		return p.parseListLiteral()
	case TokenLBrace:
		return p.parseMapLiteral()
	default:
		return nil, types.NewParseError(tok.Pos, "unexpected token %s (%q)", tok.Type, tok.Value)
	}
}

// parseListLiteral parses [expr, expr, ...].
func (p *Parser) parseListLiteral() (Node, error) {
	p.advance() // consume [

	var elements []Node
	for p.current().Type != TokenRBracket {
		if p.current().Type == TokenEOF {
			return nil, types.NewParseError(p.current().Pos, "unterminated list literal")
		}
		if len(elements) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}

	p.advance() // consume ]
	return &ListNode{Elements: elements}, nil
}

// parseMapLiteral parses { key: value, key: value, ... }.
func (p *Parser) parseMapLiteral() (Node, error) {
	p.advance() // consume {

	var keys []Node
	var values []Node
	for p.current().Type != TokenRBrace {
		if p.current().Type == TokenEOF {
			return nil, types.NewParseError(p.current().Pos, "unterminated map literal")
		}
		if len(keys) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, value)
	}

	p.advance() // consume }
	return &MapNode{Keys: keys, Values: values}, nil
}

// parseArgList parses (expr, expr, ...).
func (p *Parser) parseArgList() ([]Node, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var args []Node
	for p.current().Type != TokenRParen {
		if p.current().Type == TokenEOF {
			return nil, types.NewParseError(p.current().Pos, "unterminated argument list")
		}
		if len(args) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	p.advance() // consume )
	return args, nil
}
