package wal

import (
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

var (
	ErrIteratorExhausted    = errors.New("log iterator is exhausted")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrCorruptedLog         = errors.New("corrupted log block")
)

// Iterator walks the log in both directions from a cursor that sits between
// two records. Next moves towards older records, NextForward towards newer
// ones, and a Next followed by NextForward yields the same record twice.
type Iterator struct {
	fm FileManager

	blk       common.BlockID
	pg        *page.Page
	pos       int
	lastBlock int32
}

func newIterator(fm FileManager, blk common.BlockID) (*Iterator, error) {
	it := &Iterator{
		fm: fm,
		pg: page.New(fm.BlockSize()),
	}

	if err := it.moveToBlock(blk); err != nil {
		return nil, err
	}
	it.pos = it.lastPos()

	// A crash right after a block rollover leaves the newest block empty.
	for it.pos == 0 && it.blk.Number > 0 {
		prev := common.NewBlockID(it.blk.FileName, it.blk.Number-1)
		if err := it.moveToBlock(prev); err != nil {
			return nil, err
		}
		it.pos = it.lastPos()
	}
	it.lastBlock = it.blk.Number

	return it, nil
}

func (it *Iterator) moveToBlock(blk common.BlockID) error {
	if err := it.fm.Read(blk, it.pg); err != nil {
		return errors.Wrapf(err, "read log block %s", blk)
	}

	it.blk = blk
	return nil
}

func (it *Iterator) lastPos() int {
	return int(it.pg.GetInt(0))
}

func (it *Iterator) validPair(pos int) bool {
	return pos >= 0 && pos+pairSize <= it.pg.Size()
}

// HasNext reports whether an older record exists.
func (it *Iterator) HasNext() bool {
	return it.pos > 0 || it.blk.Number > 0
}

// Next returns the record just before the cursor and moves the cursor past it.
func (it *Iterator) Next() (*Record, error) {
	for it.pos == 0 {
		if it.blk.Number == 0 {
			return nil, ErrIteratorExhausted
		}

		prev := common.NewBlockID(it.blk.FileName, it.blk.Number-1)
		if err := it.moveToBlock(prev); err != nil {
			return nil, err
		}
		it.pos = it.lastPos()
	}

	if !it.validPair(it.pos) {
		return nil, errors.Wrapf(ErrCorruptedLog, "pair at %d in %s", it.pos, it.blk)
	}

	back := int(it.pg.GetInt(it.pos))
	if back < 0 || back >= it.pos {
		return nil, errors.Wrapf(ErrCorruptedLog, "back pointer %d at %d in %s", back, it.pos, it.blk)
	}

	rec := newRecord(it.pg, back+pairSize, it.pos, it.lsn(it.pos))
	it.pos = back

	return rec, nil
}

// HasNextForward reports whether a newer record exists.
func (it *Iterator) HasNextForward() bool {
	return it.pos != it.lastPos() || it.blk.Number < it.lastBlock
}

// NextForward returns the record just after the cursor and moves the cursor
// past it.
func (it *Iterator) NextForward() (*Record, error) {
	for it.pos == it.lastPos() {
		if it.blk.Number >= it.lastBlock {
			return nil, ErrIteratorExhausted
		}

		next := common.NewBlockID(it.blk.FileName, it.blk.Number+1)
		if err := it.moveToBlock(next); err != nil {
			return nil, err
		}
		it.pos = 0
	}

	if !it.validPair(it.pos) {
		return nil, errors.Wrapf(ErrCorruptedLog, "pair at %d in %s", it.pos, it.blk)
	}

	fwd := int(it.pg.GetInt(it.pos + intSize))
	if fwd <= it.pos || !it.validPair(fwd) {
		return nil, errors.Wrapf(ErrCorruptedLog, "forward pointer %d at %d in %s", fwd, it.pos, it.blk)
	}

	rec := newRecord(it.pg, it.pos+pairSize, fwd, it.lsn(fwd))
	it.pos = fwd

	return rec, nil
}

// Remove is not supported: the log is append-only.
func (it *Iterator) Remove() error {
	return ErrUnsupportedOperation
}

func (it *Iterator) lsn(pairPos int) common.LSN {
	//nolint:gosec
	return common.LSN(int64(it.blk.Number)*int64(it.pg.Size()) + int64(pairPos))
}
