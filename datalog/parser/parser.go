// Package parser reads Datalog programs written in the conventional
// textual syntax:
//
//	edge(a, b).
//	path(X, Y) :- edge(X, Y).
//	path(X, Z) :- edge(X, Y), path(Y, Z).
//
// Identifiers starting with an uppercase letter or '_' are variables.
// Lowercase identifiers, digit runs and double-quoted strings are
// constants. '%' starts a comment that runs to the end of the line.
package parser

import (
	"github.com/cockroachdb/errors"
	"github.com/wbrown/janus-dataflow/datalog"
)

// Parser builds rules from lexed tokens
type Parser struct {
	lexer *Lexer
}

// NewParser creates a new parser
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// ParseProgram parses a sequence of rules
func ParseProgram(input string) (datalog.Program, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return datalog.Program{}, err
	}
	return NewParser(lexer).Program()
}

// ParseRule parses exactly one rule
func ParseRule(input string) (datalog.Rule, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return datalog.Rule{}, err
	}
	p := NewParser(lexer)
	r, err := p.Rule()
	if err != nil {
		return datalog.Rule{}, err
	}
	if err := p.expect(TokenEOF); err != nil {
		return datalog.Rule{}, err
	}
	return r, nil
}

// ParseAtom parses a single atom, optionally terminated by a period. It is
// used for queries such as "path(a, Y)".
func ParseAtom(input string) (datalog.Atom, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return datalog.Atom{}, err
	}
	p := NewParser(lexer)
	a, err := p.Atom()
	if err != nil {
		return datalog.Atom{}, err
	}
	if p.lexer.PeekToken().Type == TokenPeriod {
		p.lexer.NextToken()
	}
	if err := p.expect(TokenEOF); err != nil {
		return datalog.Atom{}, err
	}
	return a, nil
}

// Program reads rules until EOF
func (p *Parser) Program() (datalog.Program, error) {
	var rules []datalog.Rule
	for p.lexer.PeekToken().Type != TokenEOF {
		r, err := p.Rule()
		if err != nil {
			return datalog.Program{}, err
		}
		rules = append(rules, r)
	}
	return datalog.NewProgram(rules...), nil
}

// Rule reads "head." or "head :- atom, atom."
func (p *Parser) Rule() (datalog.Rule, error) {
	head, err := p.Atom()
	if err != nil {
		return datalog.Rule{}, err
	}

	token := p.lexer.NextToken()
	switch token.Type {
	case TokenPeriod:
		return datalog.Fact(head), nil
	case TokenImplies:
	default:
		return datalog.Rule{}, unexpected(token, "'.' or ':-'")
	}

	var body []datalog.Atom
	for {
		a, err := p.Atom()
		if err != nil {
			return datalog.Rule{}, err
		}
		body = append(body, a)

		token := p.lexer.NextToken()
		if token.Type == TokenPeriod {
			return datalog.NewRule(head, body...), nil
		}
		if token.Type != TokenComma {
			return datalog.Rule{}, unexpected(token, "',' or '.'")
		}
	}
}

// Atom reads "name", "name()" or "name(term, ...)"
func (p *Parser) Atom() (datalog.Atom, error) {
	token := p.lexer.NextToken()
	if token.Type != TokenIdent {
		return datalog.Atom{}, unexpected(token, "relation name")
	}
	atom := datalog.NewAtom(token.Value)

	if p.lexer.PeekToken().Type != TokenLeftParen {
		return atom, nil
	}
	p.lexer.NextToken()

	if p.lexer.PeekToken().Type == TokenRightParen {
		p.lexer.NextToken()
		return atom, nil
	}

	for {
		term, err := p.Term()
		if err != nil {
			return datalog.Atom{}, err
		}
		atom.Terms = append(atom.Terms, term)

		token := p.lexer.NextToken()
		if token.Type == TokenRightParen {
			return atom, nil
		}
		if token.Type != TokenComma {
			return datalog.Atom{}, unexpected(token, "',' or ')'")
		}
	}
}

// Term reads a variable or a constant
func (p *Parser) Term() (datalog.Term, error) {
	token := p.lexer.NextToken()
	switch token.Type {
	case TokenVariable:
		return datalog.Var(token.Value), nil
	case TokenIdent, TokenString:
		return datalog.Const(token.Value), nil
	default:
		return nil, unexpected(token, "term")
	}
}

func (p *Parser) expect(typ TokenType) error {
	token := p.lexer.NextToken()
	if token.Type != typ {
		return unexpected(token, typ.String())
	}
	return nil
}

func unexpected(token Token, want string) error {
	found := token.Type.String()
	if token.Value != "" {
		found += " '" + token.Value + "'"
	}
	return errors.Newf("expected %s, found %s at %d:%d", want, found, token.Line, token.Col)
}
