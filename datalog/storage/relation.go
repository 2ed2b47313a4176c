// Package storage holds the relation stores that back evaluation: named,
// fixed-arity tables of string tuples with insert-if-absent and
// constraint-filtered scans.
package storage

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrArityMismatch is returned when a tuple, constraint set or relation
	// request disagrees with the arity the relation was created with.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrInvalidConstraint is returned for constraints on positions outside
	// the relation's arity.
	ErrInvalidConstraint = errors.New("invalid constraint")
)

// Tuple is one row of a relation
type Tuple []string

// String renders the tuple as (a, b, c)
func (t Tuple) String() string {
	return "(" + strings.Join(t, ", ") + ")"
}

// Equal reports whether two tuples hold the same values
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Matches reports whether the tuple satisfies every constraint
func (t Tuple) Matches(constraints []Constraint) bool {
	for _, c := range constraints {
		if c.Position >= len(t) || t[c.Position] != c.Value {
			return false
		}
	}
	return true
}

// Constraint requires the column at Position to equal Value
type Constraint struct {
	Position int
	Value    string
}

// Eq is shorthand for Constraint{Position: pos, Value: value}
func Eq(pos int, value string) Constraint {
	return Constraint{Position: pos, Value: value}
}

// Relation is a single fixed-arity table.
type Relation interface {
	// Name returns the relation name
	Name() string

	// Arity returns the fixed number of columns
	Arity() int

	// Store inserts the tuple unless an identical row exists, reporting
	// whether it was newly inserted.
	Store(t Tuple) (bool, error)

	// Load returns every row matching all constraints. With no constraints
	// it returns the full contents. The result is a snapshot: later Store
	// calls do not affect it. Row order is unspecified.
	Load(constraints ...Constraint) ([]Tuple, error)
}

// Store is a namespace of relations
type Store interface {
	// Relation opens the named relation, creating its table with the given
	// arity on first use.
	Relation(name string, arity int) (Relation, error)

	// Close releases the store
	Close() error
}

// scanPlan splits constraints into a leading key prefix, usable as a range
// scan, and residual constraints checked per row.
type scanPlan struct {
	prefix   []string
	residual []Constraint
	empty    bool // constraints contradict each other; nothing can match
}

// planScan validates constraints against the arity and builds a scanPlan.
func planScan(name string, arity int, constraints []Constraint) (scanPlan, error) {
	var plan scanPlan
	if len(constraints) == 0 {
		return plan, nil
	}

	sorted := make([]Constraint, len(constraints))
	copy(sorted, constraints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	next := 0
	for i, c := range sorted {
		if c.Position < 0 || c.Position >= arity {
			return scanPlan{}, errors.Wrapf(ErrInvalidConstraint,
				"relation %q has arity %d, constraint on position %d", name, arity, c.Position)
		}
		if i > 0 && sorted[i-1].Position == c.Position {
			if sorted[i-1].Value != c.Value {
				plan.empty = true
			}
			continue
		}
		if c.Position == next && len(plan.residual) == 0 {
			plan.prefix = append(plan.prefix, c.Value)
			next++
			continue
		}
		plan.residual = append(plan.residual, c)
	}
	return plan, nil
}

func checkArity(name string, arity int, t Tuple) error {
	if len(t) != arity {
		return errors.Wrapf(ErrArityMismatch,
			"relation %q has arity %d, tuple %s has %d columns", name, arity, t, len(t))
	}
	return nil
}
