package storage

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Key tags separate relation metadata from rows
const (
	tagMeta byte = 0x01
	tagRow  byte = 0x02
)

// KeyEncoder builds ordered binary keys for tuples stored in a key-value
// engine. Every component is length-prefixed with a uvarint, so a key for
// a tuple's leading columns is a byte prefix of the full row key.
//
// Row key:  tagRow  | namespace | relation | col0 | col1 | ...
// Meta key: tagMeta | namespace | relation
type KeyEncoder struct{}

// MetaKey returns the key holding a relation's arity
func (KeyEncoder) MetaKey(namespace, relation string) []byte {
	key := []byte{tagMeta}
	key = appendComponent(key, namespace)
	return appendComponent(key, relation)
}

// NamespacePrefixes returns the key prefixes covering every meta and row
// key of a namespace
func (KeyEncoder) NamespacePrefixes(namespace string) [][]byte {
	return [][]byte{
		appendComponent([]byte{tagMeta}, namespace),
		appendComponent([]byte{tagRow}, namespace),
	}
}

// RowPrefix returns the key prefix shared by all rows of the relation whose
// leading columns equal the given values
func (KeyEncoder) RowPrefix(namespace, relation string, leading ...string) []byte {
	key := []byte{tagRow}
	key = appendComponent(key, namespace)
	key = appendComponent(key, relation)
	return EncodeColumns(key, leading)
}

// RowKey returns the full key of a tuple
func (e KeyEncoder) RowKey(namespace, relation string, t Tuple) []byte {
	return e.RowPrefix(namespace, relation, t...)
}

// DecodeRow extracts the tuple from a row key produced by RowKey
func (e KeyEncoder) DecodeRow(namespace, relation string, arity int, key []byte) (Tuple, error) {
	prefix := e.RowPrefix(namespace, relation)
	if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
		return nil, errors.Newf("row key does not belong to relation %q", relation)
	}
	return DecodeColumns(key[len(prefix):], arity)
}

// PrefixRange returns start and end keys covering every key with the
// given prefix. A nil end means the range is unbounded above.
func (KeyEncoder) PrefixRange(prefix []byte) (start, end []byte) {
	start = prefix

	// End key is the prefix with its last non-0xFF byte incremented
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xFF {
			end = make([]byte, i+1)
			copy(end, prefix[:i+1])
			end[i]++
			return start, end
		}
	}
	return start, nil
}

// EncodeColumns appends length-prefixed columns to buf
func EncodeColumns(buf []byte, columns []string) []byte {
	for _, c := range columns {
		buf = appendComponent(buf, c)
	}
	return buf
}

// DecodeColumns reads exactly arity length-prefixed columns
func DecodeColumns(data []byte, arity int) (Tuple, error) {
	t := make(Tuple, arity)
	for i := 0; i < arity; i++ {
		n, size := binary.Uvarint(data)
		if size <= 0 || uint64(len(data)-size) < n {
			return nil, errors.Newf("truncated column %d", i)
		}
		data = data[size:]
		t[i] = string(data[:n])
		data = data[n:]
	}
	if len(data) != 0 {
		return nil, errors.Newf("%d trailing bytes after %d columns", len(data), arity)
	}
	return t, nil
}

func appendComponent(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
