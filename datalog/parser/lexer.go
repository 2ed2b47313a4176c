package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Lexer tokenizes Datalog program text
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		startLine := l.line
		startCol := l.col

		ch := l.peek()
		switch {
		case ch == '"':
			str, err := l.readString()
			if err != nil {
				return err
			}
			l.emit(TokenString, str, startLine, startCol)
		case ch == '(':
			l.advance()
			l.emit(TokenLeftParen, "", startLine, startCol)
		case ch == ')':
			l.advance()
			l.emit(TokenRightParen, "", startLine, startCol)
		case ch == ',':
			l.advance()
			l.emit(TokenComma, "", startLine, startCol)
		case ch == '.':
			l.advance()
			l.emit(TokenPeriod, "", startLine, startCol)
		case ch == ':':
			l.advance()
			if l.peek() != '-' {
				return errors.Newf("expected ':-' at %d:%d", startLine, startCol)
			}
			l.advance()
			l.emit(TokenImplies, "", startLine, startCol)
		case isIdentChar(ch):
			word := l.readWord()
			first := rune(word[0])
			if unicode.IsUpper(first) || first == '_' {
				l.emit(TokenVariable, word, startLine, startCol)
			} else {
				l.emit(TokenIdent, word, startLine, startCol)
			}
		default:
			return errors.Newf("unexpected character '%c' at %d:%d", ch, l.line, l.col)
		}
	}

	l.emit(TokenEOF, "", l.line, l.col)
	return nil
}

func (l *Lexer) emit(typ TokenType, value string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: line, Col: col})
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	token := l.tokens[l.current]
	l.current++
	return token
}

// PeekToken returns the next token without advancing
func (l *Lexer) PeekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	return l.tokens[l.current]
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// advance moves to the next character
func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipWhitespaceAndComments skips whitespace and '%' line comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) {
			l.advance()
		} else if ch == '%' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

// readString reads a double-quoted string literal. Escapes follow Go
// string literal syntax, matching what the printer emits; raw newlines are
// allowed inside the quotes.
func (l *Lexer) readString() (string, error) {
	line, col := l.line, l.col
	start := l.pos
	l.advance() // opening quote

	for l.pos < len(l.input) {
		switch l.peek() {
		case '"':
			l.advance()
			raw := l.input[start:l.pos]
			if !strings.Contains(raw, `\`) {
				return raw[1 : len(raw)-1], nil
			}
			raw = strings.ReplaceAll(raw, "\n", `\n`)
			value, err := strconv.Unquote(raw)
			if err != nil {
				return "", errors.Newf("invalid string literal %s at %d:%d", l.input[start:l.pos], line, col)
			}
			return value, nil
		case '\\':
			l.advance()
			if l.pos >= len(l.input) {
				return "", errors.Newf("unexpected end of input in string at %d:%d", l.line, l.col)
			}
			l.advance()
		default:
			l.advance()
		}
	}

	return "", errors.Newf("unterminated string at %d:%d", l.line, l.col)
}

// readWord reads an identifier, variable or number
func (l *Lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.peek()) {
		l.advance()
	}
	return l.input[start:l.pos]
}

func isIdentChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
