package storage

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories opens one fresh store per backend
var storeFactories = []struct {
	name string
	open func(t require.TestingT) Store
}{
	{"memory", func(t require.TestingT) Store {
		return NewMemoryStore()
	}},
	{"badger", func(t require.TestingT) Store {
		s, err := NewBadgerStore("")
		require.NoError(t, err)
		return s
	}},
	{"pebble", func(t require.TestingT) Store {
		s, err := NewPebbleStore("")
		require.NoError(t, err)
		return s
	}},
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	for _, f := range storeFactories {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			fn(t, store)
		})
	}
}

func sortedStrings(tuples []Tuple) []string {
	out := make([]string, len(tuples))
	for i, tuple := range tuples {
		out[i] = tuple.String()
	}
	sort.Strings(out)
	return out
}

func TestStoreDeduplicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		rel, err := store.Relation("edge", 2)
		require.NoError(t, err)
		assert.Equal(t, "edge", rel.Name())
		assert.Equal(t, 2, rel.Arity())

		added, err := rel.Store(Tuple{"a", "b"})
		require.NoError(t, err)
		assert.True(t, added)

		added, err = rel.Store(Tuple{"a", "b"})
		require.NoError(t, err)
		assert.False(t, added, "second insert of the same tuple")

		added, err = rel.Store(Tuple{"b", "a"})
		require.NoError(t, err)
		assert.True(t, added)

		rows, err := rel.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"(a, b)", "(b, a)"}, sortedStrings(rows))
	})
}

func TestStoreLoadConstraints(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		rel, err := store.Relation("triple", 3)
		require.NoError(t, err)

		for _, tuple := range []Tuple{
			{"a", "x", "1"},
			{"a", "y", "1"},
			{"a", "y", "2"},
			{"b", "y", "1"},
			{"ab", "y", "1"},
		} {
			_, err := rel.Store(tuple)
			require.NoError(t, err)
		}

		tests := []struct {
			name        string
			constraints []Constraint
			want        []string
		}{
			{"all", nil, []string{"(a, x, 1)", "(a, y, 1)", "(a, y, 2)", "(ab, y, 1)", "(b, y, 1)"}},
			{"first", []Constraint{Eq(0, "a")}, []string{"(a, x, 1)", "(a, y, 1)", "(a, y, 2)"}},
			{"middle", []Constraint{Eq(1, "y")}, []string{"(a, y, 1)", "(a, y, 2)", "(ab, y, 1)", "(b, y, 1)"}},
			{"first and last", []Constraint{Eq(2, "1"), Eq(0, "a")}, []string{"(a, x, 1)", "(a, y, 1)"}},
			{"full key", []Constraint{Eq(0, "b"), Eq(1, "y"), Eq(2, "1")}, []string{"(b, y, 1)"}},
			{"no match", []Constraint{Eq(0, "c")}, []string{}},
			{"contradiction", []Constraint{Eq(0, "a"), Eq(0, "b")}, []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rows, err := rel.Load(tt.constraints...)
				require.NoError(t, err)
				assert.Equal(t, tt.want, sortedStrings(rows))
			})
		}
	})
}

func TestStoreLoadIsSnapshot(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		rel, err := store.Relation("r", 1)
		require.NoError(t, err)
		_, err = rel.Store(Tuple{"a"})
		require.NoError(t, err)

		rows, err := rel.Load()
		require.NoError(t, err)
		require.Len(t, rows, 1)

		_, err = rel.Store(Tuple{"b"})
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		// Mutating a loaded tuple does not reach the store
		rows[0][0] = "z"
		again, err := rel.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"(a)", "(b)"}, sortedStrings(again))
	})
}

func TestStoreErrors(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		rel, err := store.Relation("r", 2)
		require.NoError(t, err)

		_, err = rel.Store(Tuple{"only-one"})
		assert.ErrorIs(t, err, ErrArityMismatch)

		_, err = rel.Load(Eq(2, "x"))
		assert.ErrorIs(t, err, ErrInvalidConstraint)

		_, err = store.Relation("r", 3)
		assert.ErrorIs(t, err, ErrArityMismatch)

		same, err := store.Relation("r", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, same.Arity())
	})
}

func TestStoreZeroArity(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		rel, err := store.Relation("flag", 0)
		require.NoError(t, err)

		rows, err := rel.Load()
		require.NoError(t, err)
		assert.Empty(t, rows)

		added, err := rel.Store(Tuple{})
		require.NoError(t, err)
		assert.True(t, added)

		added, err = rel.Store(Tuple{})
		require.NoError(t, err)
		assert.False(t, added)

		rows, err = rel.Load()
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestNamespacesAreDisjoint(t *testing.T) {
	badgerStore, err := NewBadgerStore("")
	require.NoError(t, err)
	defer badgerStore.Close()

	pebbleStore, err := NewPebbleStore("")
	require.NoError(t, err)
	defer pebbleStore.Close()

	pairs := []struct {
		name     string
		edb, idb Store
	}{
		{"badger", badgerStore.Namespace("edb"), badgerStore.Namespace("idb")},
		{"pebble", pebbleStore.Namespace("edb"), pebbleStore.Namespace("idb")},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			e, err := p.edb.Relation("r", 1)
			require.NoError(t, err)
			i, err := p.idb.Relation("r", 2)
			require.NoError(t, err, "same name, different namespace, different arity")

			_, err = e.Store(Tuple{"a"})
			require.NoError(t, err)

			rows, err := i.Load()
			require.NoError(t, err)
			assert.Empty(t, rows)

			// Closing a view leaves the shared database open
			require.NoError(t, p.edb.Close())
			rows, err = e.Load()
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestNamespaceClear(t *testing.T) {
	badgerStore, err := NewBadgerStore("")
	require.NoError(t, err)
	defer badgerStore.Close()

	pebbleStore, err := NewPebbleStore("")
	require.NoError(t, err)
	defer pebbleStore.Close()

	type clearable interface {
		Store
		Clear() error
	}
	tests := []struct {
		name          string
		target, other clearable
	}{
		{"badger", badgerStore.Namespace("idb"), badgerStore.Namespace("idbx")},
		{"pebble", pebbleStore.Namespace("idb"), pebbleStore.Namespace("idbx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range []Store{tt.target, tt.other} {
				rel, err := s.Relation("r", 1)
				require.NoError(t, err)
				_, err = rel.Store(Tuple{"a"})
				require.NoError(t, err)
			}

			require.NoError(t, tt.target.Clear())

			// Arity metadata is gone too
			rel, err := tt.target.Relation("r", 2)
			require.NoError(t, err)
			rows, err := rel.Load()
			require.NoError(t, err)
			assert.Empty(t, rows)

			rel, err = tt.other.Relation("r", 1)
			require.NoError(t, err)
			rows, err = rel.Load()
			require.NoError(t, err)
			assert.Equal(t, []Tuple{{"a"}}, rows)
		})
	}
}

func TestPebbleStoreIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "db")
	for i := 0; i < 2; i++ {
		s, err := NewPebbleStore(path)
		require.NoError(t, err)
		rel, err := s.Relation("r", 1)
		require.NoError(t, err)
		_, err = rel.Store(Tuple{fmt.Sprint(i)})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
	assert.Empty(t, buf.String())
}

func TestBadgerStorePersists(t *testing.T) {
	dir, err := os.MkdirTemp("", "badger-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)

	rel, err := store.Relation("edge", 2)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := rel.Store(Tuple{fmt.Sprint(i), fmt.Sprint(i + 1)})
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Relation("edge", 3)
	assert.ErrorIs(t, err, ErrArityMismatch, "arity survives reopen")

	rel, err = store.Relation("edge", 2)
	require.NoError(t, err)
	rows, err := rel.Load(Eq(0, "3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"(3, 4)"}, sortedStrings(rows))
}

func TestPebbleStorePersists(t *testing.T) {
	dir, err := os.MkdirTemp("", "pebble-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := NewPebbleStore(dir)
	require.NoError(t, err)

	rel, err := store.Relation("edge", 2)
	require.NoError(t, err)
	_, err = rel.Store(Tuple{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewPebbleStore(dir)
	require.NoError(t, err)
	defer store.Close()

	rel, err = store.Relation("edge", 2)
	require.NoError(t, err)
	added, err := rel.Store(Tuple{"a", "b"})
	require.NoError(t, err)
	assert.False(t, added)
}
