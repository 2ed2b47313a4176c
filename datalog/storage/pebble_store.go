package storage

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleStore implements Store using Pebble, with the same key layout and
// namespace views as BadgerStore
type PebbleStore struct {
	db        *pebble.DB
	encoder   KeyEncoder
	namespace string
	view      bool
	// mu makes putIfAbsent's read-then-write atomic across views
	mu *sync.Mutex
}

// NewPebbleStore opens a Pebble-backed store at path. An empty path opens
// a store on an in-memory filesystem.
func NewPebbleStore(path string) (*PebbleStore, error) {
	opts := &pebble.Options{Logger: quietLogger{}}
	if path == "" {
		opts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pebble")
	}

	return &PebbleStore{db: db, mu: &sync.Mutex{}}, nil
}

// Namespace returns a view of the store whose relations are disjoint from
// every other namespace. Closing a view is a no-op.
func (s *PebbleStore) Namespace(name string) *PebbleStore {
	return &PebbleStore{
		db:        s.db,
		encoder:   s.encoder,
		namespace: name,
		view:      true,
		mu:        s.mu,
	}
}

// Relation implements Store
func (s *PebbleStore) Relation(name string, arity int) (Relation, error) {
	return openKVRelation(s, s.encoder, s.namespace, name, arity)
}

// Clear removes every relation of the store's namespace
func (s *PebbleStore) Clear() error {
	return clearNamespace(s, s.encoder, s.namespace)
}

// Close closes the database unless s is a namespace view
func (s *PebbleStore) Close() error {
	if s.view {
		return nil
	}
	return s.db.Close()
}

func (s *PebbleStore) get(key []byte) ([]byte, bool, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), value...), true, nil
}

func (s *PebbleStore) putIfAbsent(key, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.get(key)
	if err != nil || found {
		return false, err
	}
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PebbleStore) scan(start, end []byte, fn func(key []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return err
	}

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(append([]byte(nil), iter.Key()...)); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}

func (s *PebbleStore) deletePrefixes(prefixes [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, prefix := range prefixes {
		start, end := s.encoder.PrefixRange(prefix)
		if end == nil {
			return errors.AssertionFailedf("unbounded namespace prefix %x", prefix)
		}
		if err := batch.DeleteRange(start, end, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// quietLogger drops Pebble's informational messages and keeps errors
type quietLogger struct{}

func (quietLogger) Infof(format string, args ...interface{}) {}

func (quietLogger) Errorf(format string, args ...interface{}) {
	pebble.DefaultLogger.Errorf(format, args...)
}

func (quietLogger) Fatalf(format string, args ...interface{}) {
	pebble.DefaultLogger.Fatalf(format, args...)
}
