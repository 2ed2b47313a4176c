package datalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathProgram() Program {
	return NewProgram(
		Fact(NewAtom("edge", Const("a"), Const("b"))),
		Fact(NewAtom("edge", Const("b"), Const("c"))),
		NewRule(NewAtom("path", Var("X"), Var("Y")),
			NewAtom("edge", Var("X"), Var("Y"))),
		NewRule(NewAtom("path", Var("X"), Var("Z")),
			NewAtom("edge", Var("X"), Var("Y")),
			NewAtom("path", Var("Y"), Var("Z"))),
	)
}

func TestPrintProgram(t *testing.T) {
	expected := "edge(a, b).\n" +
		"edge(b, c).\n" +
		"path(X, Y) :- edge(X, Y).\n" +
		"path(X, Z) :- edge(X, Y), path(Y, Z)."
	assert.Equal(t, expected, pathProgram().String())
}

func TestPrintTerms(t *testing.T) {
	tests := []struct {
		name     string
		atom     Atom
		expected string
	}{
		{"zero arity", NewAtom("start"), "start"},
		{"bare constants", NewAtom("r", Const("tag2"), Const("42")), "r(tag2, 42)"},
		{"quoted uppercase", NewAtom("r", Const("Alice")), `r("Alice")`},
		{"quoted space", NewAtom("r", Const("new york")), `r("new york")`},
		{"quoted empty", NewAtom("r", Const("")), `r("")`},
		{"quoted mixed digits", NewAtom("r", Const("12ab")), `r("12ab")`},
		{"variables", NewAtom("r", Var("X"), Var("_tmp")), "r(X, _tmp)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.atom.String())
		})
	}
}

func TestProgramHelpers(t *testing.T) {
	p := pathProgram()
	assert.Equal(t, map[string]int{"edge": 2, "path": 2}, p.Arities())
	assert.Equal(t, []string{"edge", "path"}, p.HeadRelations())

	assert.True(t, p.Rules[0].IsFact())
	assert.False(t, p.Rules[2].IsFact())
	assert.True(t, p.Rules[0].Head.IsGround())
	assert.False(t, p.Rules[2].Head.IsGround())
	require.Len(t, p.Rules[3].Atoms(), 3)
	assert.Equal(t, "path", p.Rules[3].Atoms()[0].Relation)
}

func TestValidate(t *testing.T) {
	t.Run("valid program has no diagnostics", func(t *testing.T) {
		assert.Empty(t, Validate(pathProgram()))
	})

	tests := []struct {
		name     string
		program  Program
		code     string
		severity Severity
		rule     int
	}{
		{
			name: "empty variable name",
			program: NewProgram(NewRule(NewAtom("p", Var("X")),
				NewAtom("q", Var("X"), Var("")))),
			code: CodeEmptyVariable,
		},
		{
			name: "lowercase variable",
			program: NewProgram(NewRule(NewAtom("p", Var("X")),
				NewAtom("q", Var("X"), Var("y")))),
			code: CodeVariableCase,
		},
		{
			name:     "empty constant",
			program:  NewProgram(Fact(NewAtom("p", Const("")))),
			code:     CodeEmptyConstant,
			severity: SeverityWarning,
		},
		{
			name:    "empty relation",
			program: NewProgram(Fact(NewAtom("", Const("a")))),
			code:    CodeEmptyRelation,
		},
		{
			name: "arity mismatch",
			program: NewProgram(
				Fact(NewAtom("p", Const("a"))),
				Fact(NewAtom("p", Const("a"), Const("b"))),
			),
			code: CodeArityMismatch,
			rule: 1,
		},
		{
			name:    "fact with variable",
			program: NewProgram(Fact(NewAtom("p", Var("X")))),
			code:    CodeNonGroundFact,
		},
		{
			name: "unbound head variable",
			program: NewProgram(NewRule(NewAtom("p", Var("X"), Var("Y")),
				NewAtom("q", Var("X")))),
			code: CodeUnboundHeadVar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := Validate(tt.program)
			require.Len(t, diags, 1, "diagnostics: %v", diags)
			assert.Equal(t, tt.code, diags[0].Code)
			assert.Equal(t, tt.severity, diags[0].Severity)
			assert.Equal(t, tt.rule, diags[0].Rule)
		})
	}
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Diagnostic{{Code: CodeEmptyConstant, Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Diagnostic{{Code: CodeArityMismatch}}))
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Code: CodeArityMismatch, Message: "arity mismatch", Rule: 2}
	assert.Equal(t, "ERROR: E121 in rule 3: arity mismatch", d.String())
}
