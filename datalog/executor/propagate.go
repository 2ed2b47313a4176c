package executor

import (
	"github.com/cockroachdb/errors"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// propagateUp stores a tuple in a relation and, if it is new, pushes it into
// every rule that reads the relation. A tuple already stored stops here;
// this is what makes recursive rules terminate.
func (n *Network) propagateUp(h *headPlan, t storage.Tuple) error {
	added, err := h.rel.Store(t)
	if err != nil {
		n.ctx.StoreError(h.name, err)
		return errors.Wrapf(err, "storing into %s", h.name)
	}
	if !added {
		n.stats.Duplicates++
		return nil
	}

	n.stats.Derived++
	n.ctx.TupleDerived(h.name, t)
	return n.fanOut(h, t)
}

// fanOut joins a tuple of h with the rest of every body atom reading h and
// pushes each resulting head row upward.
func (n *Network) fanOut(h *headPlan, t storage.Tuple) error {
	for _, e := range h.upper {
		body := n.bodies[e.body]
		shared, ok := bindRow(body.atoms[e.pos].slots, t)
		if !ok {
			continue
		}

		head := n.heads[body.head]
		err := n.join(body, 0, shared, e.pos, func(b Binding) error {
			row, err := body.project(b)
			if err != nil {
				return err
			}
			return n.propagateUp(head, row)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// join extends b over the body atoms from index i on, skipping the atom at
// skip, and calls yield with every complete binding. Once the rows of an
// atom are exhausted the atom's relation is explored downward under the
// same constraints; rows derived by that exploration come back through
// fanOut.
func (n *Network) join(body *bodyPlan, i int, b Binding, skip int, yield func(Binding) error) error {
	if i == skip {
		i++
	}
	if i >= len(body.atoms) {
		return yield(b)
	}

	atom := body.atoms[i]
	h := n.heads[atom.head]
	keys := constraints(atom.slots, b)

	rows, err := n.load(h, keys)
	if err != nil {
		return err
	}
	for _, row := range rows {
		local, ok := bindRow(atom.slots, row)
		if !ok {
			continue
		}
		merged, ok := Merge(b, local)
		if !ok {
			continue
		}
		if err := n.join(body, i+1, merged, skip, yield); err != nil {
			return err
		}
	}

	return n.propagateDown(h, keys)
}

// propagateDown makes sure every row of h matching keys that the program
// can derive has been derived. Each key set is explored at most once per
// relation; an exploration that fails is forgotten so a later call retries.
func (n *Network) propagateDown(h *headPlan, keys []storage.Constraint) error {
	sig := signature(keys)
	if _, ok := h.explored[sig]; ok {
		n.stats.MemoHits++
		n.ctx.ExploreMemoHit(h.name, h.arity, keys)
		return nil
	}
	h.explored[sig] = struct{}{}
	n.stats.Explorations++
	n.ctx.ExploreBegin(h.name, h.arity, keys, len(h.lower))

	if err := n.explore(h, keys); err != nil {
		delete(h.explored, sig)
		return err
	}
	return nil
}

func (n *Network) explore(h *headPlan, keys []storage.Constraint) error {
	// Leaf: push the stored rows up
	if len(h.lower) == 0 {
		rows, err := n.load(h, keys)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := n.fanOut(h, row); err != nil {
				return err
			}
		}
		return nil
	}

	for _, index := range h.lower {
		body := n.bodies[index]
		b, ok := bindKeys(body.headSlots, keys)
		if !ok {
			continue
		}
		first := body.atoms[0]
		if err := n.propagateDown(n.heads[first.head], constraints(first.slots, b)); err != nil {
			return err
		}
	}
	return nil
}

// load reads the rows of h matching keys
func (n *Network) load(h *headPlan, keys []storage.Constraint) ([]storage.Tuple, error) {
	rows, err := h.rel.Load(keys...)
	if err != nil {
		n.ctx.StoreError(h.name, err)
		return nil, errors.Wrapf(err, "loading %s", h.name)
	}
	for _, row := range rows {
		if len(row) != h.arity {
			return nil, errors.AssertionFailedf("relation %s: store returned %d columns, plan has %d",
				h.name, len(row), h.arity)
		}
	}
	n.stats.RowsLoaded += int64(len(rows))
	return rows, nil
}

// project builds the head row of a complete binding
func (p *bodyPlan) project(b Binding) (storage.Tuple, error) {
	row := make(storage.Tuple, len(p.headSlots))
	for i, s := range p.headSlots {
		if s.isConst {
			row[i] = s.constant
			continue
		}
		v, ok := b[s.variable]
		if !ok {
			return nil, errors.AssertionFailedf("rule %d: head variable %s is not bound by the body",
				p.rule+1, p.varNames[s.variable])
		}
		row[i] = v
	}
	return row, nil
}
