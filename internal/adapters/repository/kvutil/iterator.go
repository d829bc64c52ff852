// Package kvutil holds helpers shared by the storage engines.
package kvutil

import (
	"slices"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

var _ ports.KVIterator = (*SliceIterator)(nil)

type Pair struct {
	Key   []byte
	Value []byte
}

// SliceIterator iterates over pairs materialised up front. Callers must pass
// the pairs already sorted by key.
type SliceIterator struct {
	pairs    []Pair
	pos      int
	err      error
	released bool
}

func NewSliceIterator(pairs []Pair) *SliceIterator {
	return &SliceIterator{pairs: pairs, pos: -1}
}

// ErrIterator returns an iterator that yields nothing and reports err.
func ErrIterator(err error) *SliceIterator {
	return &SliceIterator{pos: -1, err: err}
}

func (it *SliceIterator) Next() bool {
	if it.released || it.err != nil {
		return false
	}
	if it.pos+1 >= len(it.pairs) {
		it.pos = len(it.pairs)
		return false
	}
	it.pos++
	return true
}

func (it *SliceIterator) Key() []byte {
	if it.released || it.pos < 0 || it.pos >= len(it.pairs) {
		return nil
	}
	return slices.Clone(it.pairs[it.pos].Key)
}

func (it *SliceIterator) Value() []byte {
	if it.released || it.pos < 0 || it.pos >= len(it.pairs) {
		return nil
	}
	return slices.Clone(it.pairs[it.pos].Value)
}

func (it *SliceIterator) Error() error {
	return it.err
}

func (it *SliceIterator) Release() {
	it.released = true
	it.pairs = nil
}

// PrefixLimit returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists (empty or all-0xff prefix).
func PrefixLimit(prefix []byte) []byte {
	limit := slices.Clone(prefix)
	for i := len(limit) - 1; i >= 0; i-- {
		limit[i]++
		if limit[i] != 0 {
			return limit[:i+1]
		}
	}
	return nil
}
