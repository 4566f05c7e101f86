package ofql

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports malformed OFQL input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ofql: syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Parser parses OFQL queries into an AST.
type Parser struct {
	lexer   *Lexer
	current Token
}

// Parse parses the input string and returns the AST root node. Empty input
// yields a nil node.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	p := &Parser{lexer: NewLexer(input)}
	p.advance()

	node, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.unexpected("AND or end of input")
	}
	return node, nil
}

func (p *Parser) advance() {
	p.current = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.current.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) unexpected(want string) error {
	switch p.current.Type {
	case TokenOr, TokenNot:
		return p.errorf("%s is not supported: object filters only combine clauses with AND", p.current.Value)
	case TokenIllegal:
		return p.errorf("%s %q", p.current.Type, p.current.Value)
	}
	return p.errorf("expected %s but got %s %q", want, p.current.Type, p.current.Value)
}

// parseAnd handles AND-joined clauses.
func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseClause()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenAnd {
		p.advance()
		right, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		left = AndExpr{Left: left, Right: right}
	}

	return left, nil
}

// parseClause handles path:value, path!=value and path:func(args).
func (p *Parser) parseClause() (Node, error) {
	if p.current.Type == TokenLParen {
		p.advance()
		expr, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, p.unexpected("')'")
		}
		p.advance()
		return expr, nil
	}

	if p.current.Type != TokenIdent {
		return nil, p.unexpected("property path")
	}
	path := p.current.Value
	if strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return nil, p.errorf("invalid property path %q", path)
	}
	p.advance()

	switch p.current.Type {
	case TokenColon:
		p.advance()
	case TokenNeq:
		p.advance()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return MatchExpr{Path: path, Op: "!=", Value: value}, nil
	default:
		return nil, p.unexpected("':' or '!=' after " + path)
	}

	// path:ident(...) is a call; any other value is an equality match.
	if p.current.Type == TokenIdent {
		name := p.current
		p.advance()
		if p.current.Type == TokenLParen {
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return CallExpr{Path: path, Func: name.Value, Args: args, Pos: name.Pos}, nil
		}
		return MatchExpr{Path: path, Op: "=", Value: identValue(name.Value)}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return MatchExpr{Path: path, Op: "=", Value: value}, nil
}

// parseArgs parses a call's arguments up to and including ')'.
func (p *Parser) parseArgs() ([]any, error) {
	args := []any{}
	if p.current.Type == TokenRParen {
		p.advance()
		return args, nil
	}

	for {
		var (
			arg any
			err error
		)
		if p.current.Type == TokenLBracket {
			p.advance()
			arg, err = p.parseList()
		} else {
			arg, err = p.parseValue()
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.current.Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return args, nil
		default:
			return nil, p.unexpected("',' or ')'")
		}
	}
}

// parseList parses list items up to and including ']'.
func (p *Parser) parseList() ([]any, error) {
	items := []any{}
	if p.current.Type == TokenRBracket {
		p.advance()
		return items, nil
	}

	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		switch p.current.Type {
		case TokenComma:
			p.advance()
		case TokenRBracket:
			p.advance()
			return items, nil
		default:
			return nil, p.unexpected("',' or ']'")
		}
	}
}

// parseValue parses a single scalar.
func (p *Parser) parseValue() (any, error) {
	tok := p.current
	switch tok.Type {
	case TokenString:
		p.advance()
		return tok.Value, nil
	case TokenNumber:
		p.advance()
		return numberValue(tok.Value), nil
	case TokenIdent:
		p.advance()
		return identValue(tok.Value), nil
	}
	return nil, p.unexpected("value")
}

func numberValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func identValue(s string) any {
	switch strings.ToLower(s) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
