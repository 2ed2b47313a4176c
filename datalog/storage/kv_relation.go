package storage

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// kvEngine is the slice of a key-value engine a kvRelation needs
type kvEngine interface {
	get(key []byte) ([]byte, bool, error)
	putIfAbsent(key, value []byte) (bool, error)
	// scan calls fn for every key in [start, end); a nil end is unbounded
	scan(start, end []byte, fn func(key []byte) error) error
	// deletePrefixes removes every key starting with one of the prefixes
	deletePrefixes(prefixes [][]byte) error
}

// clearNamespace removes every relation of a namespace, arity included
func clearNamespace(engine kvEngine, encoder KeyEncoder, namespace string) error {
	if err := engine.deletePrefixes(encoder.NamespacePrefixes(namespace)); err != nil {
		return errors.Wrapf(err, "clearing namespace %q", namespace)
	}
	return nil
}

// openKVRelation opens a relation in a key-value engine, persisting its
// arity under the relation's meta key on first use
func openKVRelation(engine kvEngine, encoder KeyEncoder, namespace, name string, arity int) (*kvRelation, error) {
	if arity < 0 {
		return nil, errors.Wrapf(ErrArityMismatch, "relation %q: negative arity %d", name, arity)
	}

	meta := encoder.MetaKey(namespace, name)
	created, err := engine.putIfAbsent(meta, binary.AppendUvarint(nil, uint64(arity)))
	if err != nil {
		return nil, errors.Wrapf(err, "opening relation %q", name)
	}
	if !created {
		value, _, err := engine.get(meta)
		if err != nil {
			return nil, errors.Wrapf(err, "reading arity of relation %q", name)
		}
		stored, n := binary.Uvarint(value)
		if n <= 0 {
			return nil, errors.Newf("corrupt arity for relation %q", name)
		}
		if int(stored) != arity {
			return nil, errors.Wrapf(ErrArityMismatch,
				"relation %q has arity %d, requested %d", name, stored, arity)
		}
	}

	return &kvRelation{
		engine:    engine,
		encoder:   encoder,
		namespace: namespace,
		name:      name,
		arity:     arity,
	}, nil
}

// kvRelation stores each tuple as a single key with an empty value
type kvRelation struct {
	engine    kvEngine
	encoder   KeyEncoder
	namespace string
	name      string
	arity     int
}

func (r *kvRelation) Name() string { return r.name }

func (r *kvRelation) Arity() int { return r.arity }

func (r *kvRelation) Store(t Tuple) (bool, error) {
	if err := checkArity(r.name, r.arity, t); err != nil {
		return false, err
	}
	added, err := r.engine.putIfAbsent(r.encoder.RowKey(r.namespace, r.name, t), nil)
	if err != nil {
		return false, errors.Wrapf(err, "storing %s into %q", t, r.name)
	}
	return added, nil
}

func (r *kvRelation) Load(constraints ...Constraint) ([]Tuple, error) {
	plan, err := planScan(r.name, r.arity, constraints)
	if err != nil || plan.empty {
		return nil, err
	}

	prefix := r.encoder.RowPrefix(r.namespace, r.name, plan.prefix...)
	start, end := r.encoder.PrefixRange(prefix)

	var result []Tuple
	err = r.engine.scan(start, end, func(key []byte) error {
		t, err := r.encoder.DecodeRow(r.namespace, r.name, r.arity, key)
		if err != nil {
			return err
		}
		if t.Matches(plan.residual) {
			result = append(result, t)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading %q", r.name)
	}
	return result, nil
}
