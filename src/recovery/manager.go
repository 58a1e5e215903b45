package recovery

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/bufferpool"
	"github.com/Blackdeer1524/StorageCore/src/pkg/assert"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/wal"
)

type LogManager interface {
	LogWriter
	Flush(lsn common.LSN) error
	Iterator() (*wal.Iterator, error)
}

var _ LogManager = &wal.Manager{}

// Manager logs the changes of a single transaction and undoes or redoes
// them. The transaction id is its only state.
type Manager struct {
	txnID common.TxnID

	pool BufferPool
	log  LogManager

	logger src.Logger
}

func NewManager(
	txnID common.TxnID,
	pool BufferPool,
	log LogManager,
	logger src.Logger,
) *Manager {
	return &Manager{
		txnID:  txnID,
		pool:   pool,
		log:    log,
		logger: logger,
	}
}

func (m *Manager) TxnID() common.TxnID {
	return m.txnID
}

// Begin logs the start of the transaction.
func (m *Manager) Begin() (common.LSN, error) {
	return WriteToLog(m.log, StartRecord{Txn: m.txnID})
}

// SetInt logs the change of the integer at offset of a pinned buffer and
// applies it.
func (m *Manager) SetInt(buf *bufferpool.Buffer, offset int, val int32) (common.LSN, error) {
	blk := buf.Block().Expect("SetInt on a buffer without a block")

	//nolint:gosec
	lsn, err := WriteToLog(m.log, SetIntRecord{
		Txn:      m.txnID,
		Block:    blk,
		Offset:   int32(offset),
		OldValue: buf.GetInt(offset),
		NewValue: val,
	})
	if err != nil {
		return common.NilLSN, err
	}

	if err := buf.SetInt(offset, val, m.txnID, lsn); err != nil {
		return common.NilLSN, errors.Wrapf(err, "set int in %s", blk)
	}

	return lsn, nil
}

// SetString logs the change of the string at offset of a pinned buffer and
// applies it.
func (m *Manager) SetString(buf *bufferpool.Buffer, offset int, val string) (common.LSN, error) {
	blk := buf.Block().Expect("SetString on a buffer without a block")

	//nolint:gosec
	lsn, err := WriteToLog(m.log, SetStringRecord{
		Txn:      m.txnID,
		Block:    blk,
		Offset:   int32(offset),
		OldValue: buf.GetString(offset),
		NewValue: val,
	})
	if err != nil {
		return common.NilLSN, err
	}

	if err := buf.SetString(offset, val, m.txnID, lsn); err != nil {
		return common.NilLSN, errors.Wrapf(err, "set string in %s", blk)
	}

	return lsn, nil
}

// Commit forces the transaction's buffers to disk, then logs and flushes
// the commit record.
func (m *Manager) Commit() error {
	if err := m.pool.FlushAll(m.txnID); err != nil {
		return err
	}

	lsn, err := WriteToLog(m.log, CommitRecord{Txn: m.txnID})
	if err != nil {
		return err
	}

	if err := m.log.Flush(lsn); err != nil {
		return errors.Wrap(err, "flush commit")
	}

	m.logger.Debugw("committed", "txn", m.txnID, "lsn", lsn)
	return nil
}

// Rollback undoes the transaction's changes, newest first, up to its start
// record, then logs and flushes the rollback record.
func (m *Manager) Rollback() error {
	iter, err := m.log.Iterator()
	if err != nil {
		return err
	}

	undone := 0
	for iter.HasNext() {
		rec, err := nextRecord(iter)
		if err != nil {
			return err
		}

		if rec.TxnID() != m.txnID {
			continue
		}
		if rec.Op() == TypeStart {
			break
		}

		if err := Undo(m.pool, rec, m.txnID); err != nil {
			return errors.Wrapf(err, "undo %s", rec)
		}
		undone++
	}

	if err := m.pool.FlushAll(m.txnID); err != nil {
		return err
	}

	lsn, err := WriteToLog(m.log, RollbackRecord{Txn: m.txnID})
	if err != nil {
		return err
	}

	if err := m.log.Flush(lsn); err != nil {
		return errors.Wrap(err, "flush rollback")
	}

	m.logger.Debugw("rolled back", "txn", m.txnID, "undone", undone)
	return nil
}

// Recover brings the data touched by the transaction to a consistent state
// after a crash.
//
// The log is scanned backwards until the transaction's start record, a
// checkpoint or the beginning of the log. Unless the transaction committed
// or rolled back, each of its changes is undone as it is met. The same window
// is then replayed forwards: a committed transaction has its own changes
// redone, and committed changes of other transactions to any location undone
// or redone so far are reapplied in log order, so the newest committed value
// wins. Finally the touched buffers are flushed.
func (m *Manager) Recover() error {
	iter, err := m.log.Iterator()
	if err != nil {
		return err
	}

	committed := mapset.NewThreadUnsafeSet[common.TxnID]()
	rolledBack := mapset.NewThreadUnsafeSet[common.TxnID]()
	touched := mapset.NewThreadUnsafeSet[location]()

	undone := 0
scan:
	for iter.HasNext() {
		rec, err := nextRecord(iter)
		if err != nil {
			return err
		}

		switch r := rec.(type) {
		case CheckpointRecord:
			break scan
		case StartRecord:
			if r.Txn == m.txnID {
				break scan
			}
		case CommitRecord:
			committed.Add(r.Txn)
		case RollbackRecord:
			rolledBack.Add(r.Txn)
		case SetIntRecord, SetStringRecord:
			if rec.TxnID() != m.txnID ||
				committed.Contains(m.txnID) ||
				rolledBack.Contains(m.txnID) {
				continue
			}

			if err := Undo(m.pool, rec, m.txnID); err != nil {
				return errors.Wrapf(err, "undo %s", rec)
			}
			touched.Add(locationOf(rec))
			undone++
		default:
			assert.Unreachable("unexpected log record %T", rec)
		}
	}

	redone := 0
	for iter.HasNextForward() {
		raw, err := iter.NextForward()
		if err != nil {
			return errors.Wrap(err, "read log forward")
		}

		rec, err := ReadLogRecord(raw)
		if err != nil {
			return err
		}

		switch rec.(type) {
		case SetIntRecord, SetStringRecord:
			if !committed.Contains(rec.TxnID()) {
				continue
			}

			loc := locationOf(rec)
			if rec.TxnID() != m.txnID && !touched.Contains(loc) {
				continue
			}

			if err := Redo(m.pool, rec, m.txnID); err != nil {
				return errors.Wrapf(err, "redo %s", rec)
			}
			touched.Add(loc)
			redone++
		}
	}

	if err := m.pool.FlushAll(m.txnID); err != nil {
		return err
	}

	m.logger.Infow(
		"recovered transaction",
		"txn", m.txnID,
		"committed", committed.Contains(m.txnID),
		"undone", undone,
		"redone", redone,
	)

	return nil
}

type location struct {
	blk    common.BlockID
	offset int32
}

func locationOf(rec LogRecord) location {
	switch r := rec.(type) {
	case SetIntRecord:
		return location{blk: r.Block, offset: r.Offset}
	case SetStringRecord:
		return location{blk: r.Block, offset: r.Offset}
	default:
		assert.Unreachable("%s does not modify data", rec)
		return location{}
	}
}

func nextRecord(iter *wal.Iterator) (LogRecord, error) {
	raw, err := iter.Next()
	if err != nil {
		return nil, errors.Wrap(err, "read log backward")
	}

	return ReadLogRecord(raw)
}
