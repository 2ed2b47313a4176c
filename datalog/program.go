// Package datalog defines the syntax of Datalog programs: terms, atoms,
// rules and programs, together with a printer and a structural validator.
//
// Values are opaque strings. The evaluation engine in datalog/executor
// consumes these types read-only.
package datalog

// Term is either a Variable or a Constant.
type Term interface {
	// IsVariable reports whether the term is a Variable
	IsVariable() bool
	String() string
}

// Variable is a logic variable, scoped to the rule it appears in
type Variable struct {
	Name string
}

// Constant is an opaque string value
type Constant struct {
	Value string
}

// IsVariable implements Term
func (Variable) IsVariable() bool { return true }

// IsVariable implements Term
func (Constant) IsVariable() bool { return false }

// Var is shorthand for Variable{Name: name}
func Var(name string) Variable {
	return Variable{Name: name}
}

// Const is shorthand for Constant{Value: value}
func Const(value string) Constant {
	return Constant{Value: value}
}

// Atom is a relation name applied to an ordered list of terms
type Atom struct {
	Relation string
	Terms    []Term
}

// NewAtom creates an atom
func NewAtom(relation string, terms ...Term) Atom {
	return Atom{Relation: relation, Terms: terms}
}

// Arity returns the number of terms
func (a Atom) Arity() int {
	return len(a.Terms)
}

// IsGround reports whether every term is a Constant
func (a Atom) IsGround() bool {
	for _, t := range a.Terms {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// Rule is a head atom derived from a conjunction of body atoms.
// A rule with an empty body is a fact.
type Rule struct {
	Head Atom
	Body []Atom
}

// NewRule creates a rule
func NewRule(head Atom, body ...Atom) Rule {
	return Rule{Head: head, Body: body}
}

// Fact creates a rule with an empty body
func Fact(head Atom) Rule {
	return Rule{Head: head}
}

// IsFact reports whether the rule has an empty body
func (r Rule) IsFact() bool {
	return len(r.Body) == 0
}

// Atoms returns the head followed by the body atoms
func (r Rule) Atoms() []Atom {
	atoms := make([]Atom, 0, len(r.Body)+1)
	atoms = append(atoms, r.Head)
	return append(atoms, r.Body...)
}

// Program is an ordered list of rules
type Program struct {
	Rules []Rule
}

// NewProgram creates a program
func NewProgram(rules ...Rule) Program {
	return Program{Rules: rules}
}

// Arities returns the first-seen arity of every relation in the program.
// Conflicting arities are reported by Validate, not here.
func (p Program) Arities() map[string]int {
	arities := make(map[string]int)
	for _, r := range p.Rules {
		for _, a := range r.Atoms() {
			if _, ok := arities[a.Relation]; !ok {
				arities[a.Relation] = a.Arity()
			}
		}
	}
	return arities
}

// HeadRelations returns the relations defined by at least one rule, in
// order of first appearance
func (p Program) HeadRelations() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range p.Rules {
		if !seen[r.Head.Relation] {
			seen[r.Head.Relation] = true
			names = append(names, r.Head.Relation)
		}
	}
	return names
}
