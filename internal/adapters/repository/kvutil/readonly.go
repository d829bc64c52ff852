package kvutil

import "github.com/vncsmyrnk/chainpoll/internal/core/ports"

// ReadOnly adapts a reader into a KVTx whose writes fail.
type ReadOnly struct {
	ports.KVReader
}

func (ReadOnly) Put(_, _ []byte) error {
	return ports.ErrReadOnly
}

func (ReadOnly) Delete(_ []byte) error {
	return ports.ErrReadOnly
}
