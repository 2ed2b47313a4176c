package parser

import "fmt"

// TokenType represents the type of a program token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenVariable
	TokenString
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenPeriod
	TokenImplies
)

// Token represents a lexical token with its starting position
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenVariable:
		return "variable"
	case TokenString:
		return "string"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenPeriod:
		return "'.'"
	case TokenImplies:
		return "':-'"
	default:
		return "unknown"
	}
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenIdent, TokenVariable:
		return fmt.Sprintf("%s[%d:%d]:%s", t.Type, t.Line, t.Col, t.Value)
	case TokenString:
		return fmt.Sprintf("%s[%d:%d]:%q", t.Type, t.Line, t.Col, t.Value)
	default:
		return fmt.Sprintf("%s[%d:%d]", t.Type, t.Line, t.Col)
	}
}
