package storage

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store using BadgerDB. Namespace returns views that
// share the underlying database, so EDB and IDB relations can live in one
// physical store.
type BadgerStore struct {
	db        *badger.DB
	encoder   KeyEncoder
	namespace string
	view      bool
}

// NewBadgerStore opens a BadgerDB-backed store at path. An empty path opens
// an in-memory database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable BadgerDB logs

	// Small working set: rows are keys only
	opts.MemTableSize = 64 << 20
	opts.DetectConflicts = false
	opts.NumCompactors = 2

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger")
	}

	return &BadgerStore{db: db}, nil
}

// Namespace returns a view of the store whose relations are disjoint from
// every other namespace. Closing a view is a no-op.
func (s *BadgerStore) Namespace(name string) *BadgerStore {
	return &BadgerStore{
		db:        s.db,
		encoder:   s.encoder,
		namespace: name,
		view:      true,
	}
}

// Relation implements Store
func (s *BadgerStore) Relation(name string, arity int) (Relation, error) {
	return openKVRelation(s, s.encoder, s.namespace, name, arity)
}

// Clear removes every relation of the store's namespace
func (s *BadgerStore) Clear() error {
	return clearNamespace(s, s.encoder, s.namespace)
}

// Close closes the database unless s is a namespace view
func (s *BadgerStore) Close() error {
	if s.view {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerStore) get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *BadgerStore) putIfAbsent(key, value []byte) (bool, error) {
	added := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		return txn.Set(key, value)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (s *BadgerStore) scan(start, end []byte, fn func(key []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // rows are keys only

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if end != nil && bytes.Compare(key, end) >= 0 {
				break
			}
			if err := fn(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) deletePrefixes(prefixes [][]byte) error {
	return s.db.DropPrefix(prefixes...)
}
