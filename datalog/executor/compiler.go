package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/wbrown/janus-dataflow/datalog"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

var (
	// ErrNonConstantFact is returned when a rule with an empty body has a
	// variable in its head
	ErrNonConstantFact = errors.New("fact rule with non-constant head")

	// ErrInvalidProgram is returned by CompileWithOptions when validation
	// reports errors. The diagnostics are available through ProgramError.
	ErrInvalidProgram = errors.New("invalid program")

	// ErrUnknownRelation is returned by Assert for relations the program
	// never mentions
	ErrUnknownRelation = errors.New("unknown relation")
)

// ProgramError carries the error-level diagnostics of a rejected program
type ProgramError struct {
	Diagnostics []datalog.Diagnostic
}

func (e *ProgramError) Error() string {
	msgs := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		if d.Severity == datalog.SeverityError {
			msgs = append(msgs, d.String())
		}
	}
	return fmt.Sprintf("%s: %s", ErrInvalidProgram, strings.Join(msgs, "; "))
}

// Unwrap makes errors.Is(err, ErrInvalidProgram) hold
func (e *ProgramError) Unwrap() error { return ErrInvalidProgram }

// Compile builds a Network for prog. Relations defined by some rule head
// are IDB relations backed by idb; every other relation is read from edb.
func Compile(prog datalog.Program, edb, idb storage.Store) (*Network, error) {
	return CompileWithOptions(prog, edb, idb, Options{})
}

// CompileWithOptions is Compile with tracing and validation options
func CompileWithOptions(prog datalog.Program, edb, idb storage.Store, opts Options) (*Network, error) {
	start := time.Now()

	if opts.Validate {
		if diags := datalog.Validate(prog); datalog.HasErrors(diags) {
			return nil, &ProgramError{Diagnostics: diags}
		}
	}

	c := &compiler{
		edb: edb,
		idb: idb,
		net: &Network{
			heads: make(map[string]*headPlan),
			ctx:   NewContext(opts.Handler),
		},
	}

	// First pass: every rule head is an IDB relation
	for i, rule := range prog.Rules {
		if _, err := c.headPlan(i, rule.Head, true); err != nil {
			return nil, err
		}
	}

	// Second pass: facts and Body Plans
	for i, rule := range prog.Rules {
		if rule.IsFact() {
			if err := c.compileFact(i, rule); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.compileRule(i, rule); err != nil {
			return nil, err
		}
	}

	// Link every Body Plan below its head
	for i, body := range c.net.bodies {
		head := c.net.heads[body.head]
		head.lower = append(head.lower, i)
	}

	c.net.ctx.CompileComplete(start, len(c.net.order), len(c.net.bodies), len(c.net.facts))
	c.net.ctx.Deliver(c.net.ctx.TakePending())
	return c.net, nil
}

type compiler struct {
	edb, idb storage.Store
	net      *Network
}

// headPlan returns the Head Plan for the atom's relation, allocating it on
// first sight. Only the first pass allocates IDB plans.
func (c *compiler) headPlan(rule int, atom datalog.Atom, idb bool) (*headPlan, error) {
	if h, ok := c.net.heads[atom.Relation]; ok {
		if h.arity != atom.Arity() {
			return nil, errors.Wrapf(storage.ErrArityMismatch,
				"rule %d: %s used with arity %d, previously %d",
				rule+1, atom.Relation, atom.Arity(), h.arity)
		}
		return h, nil
	}

	store := c.edb
	if idb {
		store = c.idb
	}
	rel, err := store.Relation(atom.Relation, atom.Arity())
	if err != nil {
		return nil, errors.Wrapf(err, "rule %d: opening relation %s", rule+1, atom.Relation)
	}

	h := &headPlan{
		name:     atom.Relation,
		arity:    atom.Arity(),
		idb:      idb,
		rel:      rel,
		explored: make(map[string]struct{}),
	}
	c.net.heads[h.name] = h
	c.net.order = append(c.net.order, h.name)
	return h, nil
}

func (c *compiler) compileFact(rule int, r datalog.Rule) error {
	tuple := make(storage.Tuple, len(r.Head.Terms))
	for i, term := range r.Head.Terms {
		k, ok := term.(datalog.Constant)
		if !ok {
			return errors.Wrapf(ErrNonConstantFact, "rule %d: %s", rule+1, r.Head)
		}
		tuple[i] = k.Value
	}

	c.net.heads[r.Head.Relation].facts++
	c.net.facts = append(c.net.facts, fact{head: r.Head.Relation, tuple: tuple})
	return nil
}

func (c *compiler) compileRule(rule int, r datalog.Rule) error {
	body := &bodyPlan{
		rule: rule,
		head: r.Head.Relation,
	}
	index := len(c.net.bodies)

	// Canonical variable indexes: head variables first, then body variables
	// in order of appearance
	vars := make(map[string]int)
	slotFor := func(term datalog.Term) (slot, error) {
		switch t := term.(type) {
		case datalog.Constant:
			return constSlot(t.Value), nil
		case datalog.Variable:
			i, ok := vars[t.Name]
			if !ok {
				i = len(body.varNames)
				vars[t.Name] = i
				body.varNames = append(body.varNames, t.Name)
			}
			return varSlot(i), nil
		default:
			return slot{}, errors.AssertionFailedf("rule %d: unsupported term %T", rule+1, term)
		}
	}

	for _, term := range r.Head.Terms {
		s, err := slotFor(term)
		if err != nil {
			return err
		}
		body.headSlots = append(body.headSlots, s)
	}

	for pos, atom := range r.Body {
		h, err := c.headPlan(rule, atom, false)
		if err != nil {
			return err
		}
		h.upper = append(h.upper, edge{body: index, pos: pos})

		compiled := bodyAtom{head: h.name}
		for _, term := range atom.Terms {
			s, err := slotFor(term)
			if err != nil {
				return err
			}
			compiled.slots = append(compiled.slots, s)
		}
		body.atoms = append(body.atoms, compiled)
	}

	c.net.bodies = append(c.net.bodies, body)
	return nil
}
