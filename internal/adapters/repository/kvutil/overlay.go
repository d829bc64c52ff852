package kvutil

import (
	"bytes"
	"slices"

	"github.com/google/btree"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

const overlayDegree = 8

var _ ports.KVTx = (*Overlay)(nil)

type write struct {
	key     []byte
	value   []byte
	deleted bool
}

func lessWrite(a, b write) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Overlay buffers writes on top of a reader so engines without native
// read-your-writes transactions can still offer them. Nothing reaches base;
// the engine commits Writes() itself.
type Overlay struct {
	base   ports.KVReader
	writes *btree.BTreeG[write]
}

func NewOverlay(base ports.KVReader) *Overlay {
	return &Overlay{
		base:   base,
		writes: btree.NewG(overlayDegree, lessWrite),
	}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	if w, ok := o.writes.Get(write{key: key}); ok {
		if w.deleted {
			return nil, ports.ErrKeyNotFound
		}
		return slices.Clone(w.value), nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	if w, ok := o.writes.Get(write{key: key}); ok {
		return !w.deleted, nil
	}
	return o.base.Has(key)
}

func (o *Overlay) Put(key, value []byte) error {
	o.writes.ReplaceOrInsert(write{key: slices.Clone(key), value: nonNil(value)})
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	o.writes.ReplaceOrInsert(write{key: slices.Clone(key), deleted: true})
	return nil
}

// NewIterator merges the base view of prefix with the buffered writes.
func (o *Overlay) NewIterator(prefix []byte) ports.KVIterator {
	baseIt := o.base.NewIterator(prefix)
	defer baseIt.Release()

	var base []Pair
	for baseIt.Next() {
		base = append(base, Pair{Key: baseIt.Key(), Value: baseIt.Value()})
	}
	if err := baseIt.Error(); err != nil {
		return ErrIterator(err)
	}

	var pending []write
	o.writes.AscendGreaterOrEqual(write{key: prefix}, func(w write) bool {
		if !bytes.HasPrefix(w.key, prefix) {
			return false
		}
		pending = append(pending, w)
		return true
	})

	merged := make([]Pair, 0, len(base)+len(pending))
	i, j := 0, 0
	for i < len(base) || j < len(pending) {
		switch {
		case j >= len(pending) || (i < len(base) && bytes.Compare(base[i].Key, pending[j].key) < 0):
			merged = append(merged, base[i])
			i++
		default:
			if i < len(base) && bytes.Equal(base[i].Key, pending[j].key) {
				i++
			}
			if !pending[j].deleted {
				merged = append(merged, Pair{Key: pending[j].key, Value: pending[j].value})
			}
			j++
		}
	}
	return NewSliceIterator(merged)
}

// Writes returns the buffered puts and deletes in key order. A nil Value
// marks a delete.
func (o *Overlay) Writes() []Pair {
	out := make([]Pair, 0, o.writes.Len())
	o.writes.Ascend(func(w write) bool {
		p := Pair{Key: w.key}
		if !w.deleted {
			p.Value = w.value
		}
		out = append(out, p)
		return true
	})
	return out
}

func (o *Overlay) Len() int {
	return o.writes.Len()
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return slices.Clone(b)
}
