package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Binding
		want  Binding
		merge bool
	}{
		{"disjoint", Binding{0: "a", 2: "c"}, Binding{1: "b"}, Binding{0: "a", 1: "b", 2: "c"}, true},
		{"overlap agrees", Binding{0: "a", 1: "b"}, Binding{1: "b", 2: "c"}, Binding{0: "a", 1: "b", 2: "c"}, true},
		{"conflict", Binding{0: "a", 1: "b"}, Binding{1: "x", 2: "c"}, nil, false},
		{"empty", Binding{}, nil, Binding{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Merge(tt.a, tt.b)
			assert.Equal(t, tt.merge, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeLeavesInputsAlone(t *testing.T) {
	a := Binding{0: "a"}
	b := Binding{1: "b"}
	_, ok := Merge(a, b)
	assert.True(t, ok)
	assert.Equal(t, Binding{0: "a"}, a)
	assert.Equal(t, Binding{1: "b"}, b)
}

func TestBindRow(t *testing.T) {
	// e(X, X, k)
	slots := []slot{varSlot(0), varSlot(0), constSlot("k")}

	b, ok := bindRow(slots, storage.Tuple{"a", "a", "k"})
	assert.True(t, ok)
	assert.Equal(t, Binding{0: "a"}, b)

	_, ok = bindRow(slots, storage.Tuple{"a", "b", "k"})
	assert.False(t, ok, "repeated variable")

	_, ok = bindRow(slots, storage.Tuple{"a", "a", "z"})
	assert.False(t, ok, "constant")
}

func TestBindKeys(t *testing.T) {
	// s(tag, X, X)
	head := []slot{constSlot("tag"), varSlot(0), varSlot(0)}

	b, ok := bindKeys(head, []storage.Constraint{storage.Eq(0, "tag"), storage.Eq(1, "v")})
	assert.True(t, ok)
	assert.Equal(t, Binding{0: "v"}, b)

	_, ok = bindKeys(head, []storage.Constraint{storage.Eq(0, "other")})
	assert.False(t, ok)

	_, ok = bindKeys(head, []storage.Constraint{storage.Eq(1, "v"), storage.Eq(2, "w")})
	assert.False(t, ok)
}

func TestConstraints(t *testing.T) {
	slots := []slot{varSlot(0), constSlot("k"), varSlot(1)}
	assert.Equal(t,
		[]storage.Constraint{storage.Eq(0, "a"), storage.Eq(1, "k")},
		constraints(slots, Binding{0: "a"}))
	assert.Equal(t,
		[]storage.Constraint{storage.Eq(1, "k")},
		constraints(slots, nil))
}

func TestSignature(t *testing.T) {
	a := signature([]storage.Constraint{storage.Eq(1, "b"), storage.Eq(0, "a")})
	b := signature([]storage.Constraint{storage.Eq(0, "a"), storage.Eq(1, "b")})
	assert.Equal(t, a, b, "order independent")

	assert.NotEqual(t,
		signature([]storage.Constraint{storage.Eq(0, "ab")}),
		signature([]storage.Constraint{storage.Eq(0, "a"), storage.Eq(0, "b")}))
	assert.NotEqual(t, signature(nil), signature([]storage.Constraint{storage.Eq(0, "")}))
}
