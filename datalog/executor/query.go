package executor

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/wbrown/janus-dataflow/datalog"
	"github.com/wbrown/janus-dataflow/datalog/annotations"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// Execute seeds every fact rule of the program, in program order, and
// propagates the consequences upward. Calling it again is harmless: the
// facts are already stored and nothing new is derived.
func (n *Network) Execute() error {
	n.mu.Lock()
	defer n.unlock()

	start := time.Now()
	before := n.stats.Derived
	for _, f := range n.facts {
		n.stats.FactsSeeded++
		if err := n.propagateUp(n.heads[f.head], f.tuple); err != nil {
			return errors.Wrapf(err, "seeding fact %s%s", f.head, f.tuple)
		}
	}
	n.ctx.FactsSeeded(start, len(n.facts), n.stats.Derived-before)
	return nil
}

// Query returns every row of relation matching keys, deriving whatever the
// program can derive for those keys first. A relation the program never
// mentions yields an empty result, not an error.
func (n *Network) Query(relation string, keys ...storage.Constraint) ([]storage.Tuple, error) {
	n.mu.Lock()
	defer n.unlock()

	n.stats.Queries++
	h, ok := n.heads[relation]
	if !ok {
		return nil, nil
	}

	n.ctx.QueryBegin(relation, h.arity, keys)
	rows, err := n.query(h, keys)
	n.ctx.QueryComplete(relation, len(rows), err)
	return rows, err
}

func (n *Network) query(h *headPlan, keys []storage.Constraint) ([]storage.Tuple, error) {
	for _, k := range keys {
		if k.Position < 0 || k.Position >= h.arity {
			return nil, errors.Wrapf(storage.ErrInvalidConstraint,
				"relation %s has arity %d, key on position %d", h.name, h.arity, k.Position)
		}
	}

	if err := n.propagateDown(h, keys); err != nil {
		return nil, err
	}
	return n.load(h, keys)
}

// QueryAtom queries the atom's relation with its constants as keys.
// Variables repeated within the atom must match equal values.
func (n *Network) QueryAtom(atom datalog.Atom) ([]storage.Tuple, error) {
	var keys []storage.Constraint
	for i, term := range atom.Terms {
		if k, ok := term.(datalog.Constant); ok {
			keys = append(keys, storage.Eq(i, k.Value))
		}
	}

	n.mu.Lock()
	h, ok := n.heads[atom.Relation]
	n.mu.Unlock()
	if ok && h.arity != atom.Arity() {
		return nil, errors.Wrapf(storage.ErrArityMismatch,
			"relation %s has arity %d, query has %d", atom.Relation, h.arity, atom.Arity())
	}

	rows, err := n.Query(atom.Relation, keys...)
	if err != nil {
		return nil, err
	}

	// Repeated variables
	first := make(map[string]int)
	type pair struct{ a, b int }
	var same []pair
	for i, term := range atom.Terms {
		v, ok := term.(datalog.Variable)
		if !ok {
			continue
		}
		if j, seen := first[v.Name]; seen {
			same = append(same, pair{j, i})
			continue
		}
		first[v.Name] = i
	}
	if len(same) == 0 {
		return rows, nil
	}

	filtered := rows[:0]
next:
	for _, row := range rows {
		for _, p := range same {
			if row[p.a] != row[p.b] {
				continue next
			}
		}
		filtered = append(filtered, row)
	}
	return filtered, nil
}

// Assert inserts a tuple into a relation of the program and propagates its
// consequences upward immediately
func (n *Network) Assert(relation string, t storage.Tuple) error {
	n.mu.Lock()
	defer n.unlock()

	h, ok := n.heads[relation]
	if !ok {
		return errors.Wrapf(ErrUnknownRelation, "%s", relation)
	}
	if len(t) != h.arity {
		return errors.Wrapf(storage.ErrArityMismatch,
			"relation %s has arity %d, tuple %s has %d columns", relation, h.arity, t, len(t))
	}

	n.stats.Asserted++
	return n.propagateUp(h, append(storage.Tuple(nil), t...))
}

// Relations describes every relation of the network in compile order
func (n *Network) Relations() []RelationInfo {
	n.mu.Lock()
	defer n.mu.Unlock()

	infos := make([]RelationInfo, 0, len(n.order))
	for _, name := range n.order {
		h := n.heads[name]
		infos = append(infos, RelationInfo{
			Name:  h.name,
			Arity: h.arity,
			IDB:   h.idb,
			Rules: len(h.lower),
			Facts: h.facts,
		})
	}
	return infos
}

// Stats returns a snapshot of the evaluation counters
func (n *Network) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

// Collector returns the annotation collector, or nil when tracing is off
func (n *Network) Collector() *annotations.Collector {
	return n.ctx.Collector()
}
