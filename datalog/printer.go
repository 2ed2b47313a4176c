package datalog

import (
	"strconv"
	"strings"
	"unicode"
)

// String returns the variable name
func (v Variable) String() string {
	return v.Name
}

// String returns the constant, quoted unless it reads back as a bare constant
func (c Constant) String() string {
	if isBareConstant(c.Value) {
		return c.Value
	}
	return strconv.Quote(c.Value)
}

// String renders the atom as relation(t1, t2, ...). Zero-arity atoms print
// as just the relation name.
func (a Atom) String() string {
	if len(a.Terms) == 0 {
		return a.Relation
	}
	var sb strings.Builder
	sb.WriteString(a.Relation)
	sb.WriteByte('(')
	for i, t := range a.Terms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// String renders the rule in "head :- body1, body2." form, or "head." for facts
func (r Rule) String() string {
	if len(r.Body) == 0 {
		return r.Head.String() + "."
	}
	var sb strings.Builder
	sb.WriteString(r.Head.String())
	sb.WriteString(" :- ")
	for i, a := range r.Body {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte('.')
	return sb.String()
}

// String renders one rule per line
func (p Program) String() string {
	lines := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// isBareConstant reports whether s can be written without quotes: a
// lowercase identifier or a run of digits.
func isBareConstant(s string) bool {
	if s == "" {
		return false
	}
	first := rune(s[0])
	if unicode.IsDigit(first) {
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}
	if !unicode.IsLower(first) {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
