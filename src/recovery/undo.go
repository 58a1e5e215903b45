package recovery

import (
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src/bufferpool"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

type BufferPool interface {
	Pin(blk common.BlockID) (*bufferpool.Buffer, error)
	Unpin(buf *bufferpool.Buffer)
	FlushAll(txn common.TxnID) error
}

var _ BufferPool = &bufferpool.Manager{}

// Undo restores the old value of a set-record on behalf of txn. Other
// record types carry nothing to undo. The write is not logged.
func Undo(pool BufferPool, r LogRecord, txn common.TxnID) error {
	switch r := r.(type) {
	case SetIntRecord:
		return withPinned(pool, r.Block, func(buf *bufferpool.Buffer) error {
			return buf.SetInt(int(r.Offset), r.OldValue, txn, common.NilLSN)
		})
	case SetStringRecord:
		return withPinned(pool, r.Block, func(buf *bufferpool.Buffer) error {
			return buf.SetString(int(r.Offset), r.OldValue, txn, common.NilLSN)
		})
	default:
		return nil
	}
}

// Redo reapplies the new value of a set-record on behalf of txn.
func Redo(pool BufferPool, r LogRecord, txn common.TxnID) error {
	switch r := r.(type) {
	case SetIntRecord:
		return withPinned(pool, r.Block, func(buf *bufferpool.Buffer) error {
			return buf.SetInt(int(r.Offset), r.NewValue, txn, common.NilLSN)
		})
	case SetStringRecord:
		return withPinned(pool, r.Block, func(buf *bufferpool.Buffer) error {
			return buf.SetString(int(r.Offset), r.NewValue, txn, common.NilLSN)
		})
	default:
		return nil
	}
}

func withPinned(
	pool BufferPool,
	blk common.BlockID,
	fn func(buf *bufferpool.Buffer) error,
) error {
	buf, err := pool.Pin(blk)
	if err != nil {
		return errors.Wrapf(err, "pin %s", blk)
	}
	defer pool.Unpin(buf)

	if err := fn(buf); err != nil {
		return errors.Wrapf(err, "write to %s", blk)
	}

	return nil
}
