package executor

import (
	"sort"
	"strconv"

	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// Binding maps canonical variable indexes of one rule to values
type Binding map[int]string

// Merge returns the union of a and b. It fails if the two bindings assign
// different values to the same variable. Neither input is modified.
func Merge(a, b Binding) (Binding, bool) {
	out := make(Binding, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok && existing != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// bindRow binds a stored row into an atom's slots. It fails when the row
// contradicts a literal constant or gives a repeated variable two values.
func bindRow(slots []slot, row storage.Tuple) (Binding, bool) {
	b := make(Binding, len(slots))
	for i, s := range slots {
		if s.isConst {
			if row[i] != s.constant {
				return nil, false
			}
			continue
		}
		if existing, ok := b[s.variable]; ok && existing != row[i] {
			return nil, false
		}
		b[s.variable] = row[i]
	}
	return b, true
}

// bindKeys translates key constraints on a head into a binding of the rule's
// variables. It fails when a key contradicts a constant in the head or two
// keys give one variable different values.
func bindKeys(headSlots []slot, keys []storage.Constraint) (Binding, bool) {
	b := make(Binding, len(keys))
	for _, k := range keys {
		s := headSlots[k.Position]
		if s.isConst {
			if s.constant != k.Value {
				return nil, false
			}
			continue
		}
		if existing, ok := b[s.variable]; ok && existing != k.Value {
			return nil, false
		}
		b[s.variable] = k.Value
	}
	return b, true
}

// constraints derives the key constraints for loading an atom under a
// binding: every literal constant plus every bound variable
func constraints(slots []slot, b Binding) []storage.Constraint {
	var keys []storage.Constraint
	for i, s := range slots {
		if s.isConst {
			keys = append(keys, storage.Eq(i, s.constant))
			continue
		}
		if v, ok := b[s.variable]; ok {
			keys = append(keys, storage.Eq(i, v))
		}
	}
	return keys
}

// signature is the memo key of a key set: constraints sorted by position
// then value, each length-prefixed
func signature(keys []storage.Constraint) string {
	sorted := make([]storage.Constraint, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Value < sorted[j].Value
	})

	cols := make([]string, 0, 2*len(sorted))
	for _, k := range sorted {
		cols = append(cols, strconv.Itoa(k.Position), k.Value)
	}
	return string(storage.EncodeColumns(nil, cols))
}

// keyMap renders constraints as position -> value for tracing
func keyMap(keys []storage.Constraint) map[int]string {
	m := make(map[int]string, len(keys))
	for _, k := range keys {
		m[k.Position] = k.Value
	}
	return m
}
