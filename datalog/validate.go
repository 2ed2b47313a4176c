package datalog

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Diagnostic codes reported by Validate
const (
	CodeEmptyVariable  = "E100"
	CodeVariableCase   = "E101"
	CodeEmptyConstant  = "W110"
	CodeEmptyRelation  = "E120"
	CodeArityMismatch  = "E121"
	CodeNonGroundFact  = "E122"
	CodeUnboundHeadVar = "E130"
)

// Diagnostic is one finding of the validator. Rule is the zero-based index
// of the offending rule in the program.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Rule     int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s in rule %d: %s", d.Severity, d.Code, d.Rule+1, d.Message)
}

// HasErrors reports whether any diagnostic is error-level
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks naming conventions, arity consistency and range
// restriction. It never fails; findings are returned as diagnostics,
// grouped by check.
func Validate(p Program) []Diagnostic {
	var diags []Diagnostic
	diags = append(diags, checkNames(p)...)
	diags = append(diags, checkArities(p)...)
	diags = append(diags, checkRangeRestriction(p)...)
	return diags
}

func checkNames(p Program) []Diagnostic {
	var diags []Diagnostic
	for i, r := range p.Rules {
		for _, a := range r.Atoms() {
			for _, t := range a.Terms {
				switch t := t.(type) {
				case Variable:
					if t.Name == "" {
						diags = append(diags, Diagnostic{
							Code:    CodeEmptyVariable,
							Message: "variable name must be non-empty",
							Rule:    i,
						})
						continue
					}
					first, _ := utf8.DecodeRuneInString(t.Name)
					if !unicode.IsUpper(first) && first != '_' {
						diags = append(diags, Diagnostic{
							Code:    CodeVariableCase,
							Message: fmt.Sprintf("variable '%s' must start with an uppercase letter", t.Name),
							Rule:    i,
						})
					}
				case Constant:
					if t.Value == "" {
						diags = append(diags, Diagnostic{
							Code:     CodeEmptyConstant,
							Severity: SeverityWarning,
							Message:  "empty constant string",
							Rule:     i,
						})
					}
				}
			}
		}
	}
	return diags
}

func checkArities(p Program) []Diagnostic {
	var diags []Diagnostic
	arities := make(map[string]int)
	for i, r := range p.Rules {
		for _, a := range r.Atoms() {
			if a.Relation == "" {
				diags = append(diags, Diagnostic{
					Code:    CodeEmptyRelation,
					Message: "relation name must be non-empty",
					Rule:    i,
				})
				continue
			}
			prev, ok := arities[a.Relation]
			if !ok {
				arities[a.Relation] = a.Arity()
				continue
			}
			if prev != a.Arity() {
				diags = append(diags, Diagnostic{
					Code:    CodeArityMismatch,
					Message: fmt.Sprintf("arity mismatch for relation '%s': expected %d, found %d", a.Relation, prev, a.Arity()),
					Rule:    i,
				})
			}
		}
	}
	return diags
}

// checkRangeRestriction reports facts containing variables and head
// variables that no body atom binds.
func checkRangeRestriction(p Program) []Diagnostic {
	var diags []Diagnostic
	for i, r := range p.Rules {
		if r.IsFact() {
			if !r.Head.IsGround() {
				diags = append(diags, Diagnostic{
					Code:    CodeNonGroundFact,
					Message: fmt.Sprintf("fact '%s' must not contain variables", r.Head),
					Rule:    i,
				})
			}
			continue
		}
		bound := make(map[string]bool)
		for _, a := range r.Body {
			for _, t := range a.Terms {
				if v, ok := t.(Variable); ok {
					bound[v.Name] = true
				}
			}
		}
		for _, t := range r.Head.Terms {
			if v, ok := t.(Variable); ok && !bound[v.Name] {
				diags = append(diags, Diagnostic{
					Code:    CodeUnboundHeadVar,
					Message: fmt.Sprintf("head variable '%s' does not appear in the body", v.Name),
					Rule:    i,
				})
			}
		}
	}
	return diags
}
