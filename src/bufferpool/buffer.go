package bufferpool

import (
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/pkg/optional"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

// Buffer is one frame of the pool: a page image plus the block it holds.
// Content accessors are not synchronised, callers coordinate through pins.
type Buffer struct {
	frameID  uint64
	contents *page.Page
	blk      optional.Optional[common.BlockID]

	pins  int
	txnID common.TxnID
	lsn   common.LSN

	disk DiskManager
	log  LogFlusher
}

func newBuffer(frameID uint64, disk DiskManager, log LogFlusher) *Buffer {
	return &Buffer{
		frameID:  frameID,
		contents: page.New(disk.BlockSize()),
		blk:      optional.None[common.BlockID](),
		txnID:    common.NilTxnID,
		lsn:      common.NilLSN,
		disk:     disk,
		log:      log,
	}
}

func (b *Buffer) Block() optional.Optional[common.BlockID] {
	return b.blk
}

func (b *Buffer) Contents() *page.Page {
	return b.contents
}

func (b *Buffer) GetInt(offset int) int32 {
	return b.contents.GetInt(offset)
}

func (b *Buffer) GetString(offset int) string {
	return b.contents.GetString(offset)
}

// SetInt writes val and marks the buffer modified by txn. A NilLSN write is
// not tied to a log record.
func (b *Buffer) SetInt(offset int, val int32, txn common.TxnID, lsn common.LSN) error {
	if err := b.contents.SetInt(offset, val); err != nil {
		return err
	}

	b.SetModified(txn, lsn)
	return nil
}

func (b *Buffer) SetString(offset int, val string, txn common.TxnID, lsn common.LSN) error {
	if err := b.contents.SetString(offset, val); err != nil {
		return err
	}

	b.SetModified(txn, lsn)
	return nil
}

func (b *Buffer) SetModified(txn common.TxnID, lsn common.LSN) {
	b.txnID = txn
	if lsn != common.NilLSN {
		b.lsn = lsn
	}
}

// ModifyingTxn returns the last transaction that modified the buffer since
// it was flushed, NilTxnID if none did.
func (b *Buffer) ModifyingTxn() common.TxnID {
	return b.txnID
}

func (b *Buffer) IsModified() bool {
	return b.txnID != common.NilTxnID
}

func (b *Buffer) IsPinned() bool {
	return b.pins > 0
}

func (b *Buffer) PinCount() int {
	return b.pins
}

// flush writes modified contents back, flushing the log up to the buffer's
// LSN first.
func (b *Buffer) flush() error {
	if !b.IsModified() {
		return nil
	}

	if err := b.log.Flush(b.lsn); err != nil {
		return err
	}

	if err := b.disk.Write(b.blk.Unwrap(), b.contents); err != nil {
		return err
	}

	b.txnID = common.NilTxnID
	return nil
}

func (b *Buffer) readBlock(blk common.BlockID) error {
	if err := b.disk.Read(blk, b.contents); err != nil {
		return err
	}

	b.blk = optional.Some(blk)
	b.lsn = common.NilLSN
	return nil
}

func (b *Buffer) appendFormatted(fileName string, fmtr PageFormatter) error {
	b.contents.Clear()
	fmtr.Format(b.contents)

	blk, err := b.disk.AppendPage(fileName, b.contents)
	if err != nil {
		return err
	}

	b.blk = optional.Some(blk)
	b.lsn = common.NilLSN
	return nil
}
