package storage

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// The degree of each relation's btree
const memoryBtreeDegree = 32

// MemoryStore keeps every relation in an ordered in-memory btree keyed by
// the tuple's encoded columns
type MemoryStore struct {
	mu        sync.Mutex
	relations map[string]*memoryRelation
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{relations: make(map[string]*memoryRelation)}
}

// Relation implements Store
func (s *MemoryStore) Relation(name string, arity int) (Relation, error) {
	if arity < 0 {
		return nil, errors.Wrapf(ErrArityMismatch, "relation %q: negative arity %d", name, arity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rel, ok := s.relations[name]; ok {
		if rel.arity != arity {
			return nil, errors.Wrapf(ErrArityMismatch,
				"relation %q has arity %d, requested %d", name, rel.arity, arity)
		}
		return rel, nil
	}

	rel := &memoryRelation{
		name:  name,
		arity: arity,
		rows:  btree.New(memoryBtreeDegree),
	}
	s.relations[name] = rel
	return rel, nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

// rowItem orders rows by their encoded columns
type rowItem struct {
	key   string
	tuple Tuple
}

// Less implements the btree.Item interface.
func (r *rowItem) Less(than btree.Item) bool {
	return r.key < than.(*rowItem).key
}

type memoryRelation struct {
	mu    sync.RWMutex
	name  string
	arity int
	rows  *btree.BTree
}

func (r *memoryRelation) Name() string { return r.name }

func (r *memoryRelation) Arity() int { return r.arity }

func (r *memoryRelation) Store(t Tuple) (bool, error) {
	if err := checkArity(r.name, r.arity, t); err != nil {
		return false, err
	}

	item := &rowItem{key: string(EncodeColumns(nil, t))}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rows.Has(item) {
		return false, nil
	}
	item.tuple = append(Tuple(nil), t...)
	r.rows.ReplaceOrInsert(item)
	return true, nil
}

func (r *memoryRelation) Load(constraints ...Constraint) ([]Tuple, error) {
	plan, err := planScan(r.name, r.arity, constraints)
	if err != nil || plan.empty {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Tuple
	collect := func(i btree.Item) bool {
		row := i.(*rowItem)
		if row.tuple.Matches(plan.residual) {
			result = append(result, append(Tuple(nil), row.tuple...))
		}
		return true
	}

	if len(plan.prefix) == 0 {
		r.rows.Ascend(collect)
		return result, nil
	}

	prefix := string(EncodeColumns(nil, plan.prefix))
	r.rows.AscendGreaterOrEqual(&rowItem{key: prefix}, func(i btree.Item) bool {
		if !strings.HasPrefix(i.(*rowItem).key, prefix) {
			return false
		}
		return collect(i)
	})
	return result, nil
}
