package recovery

import (
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src/pkg/assert"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

var ErrUnknownRecordTag = errors.New("unknown log record tag")

type LogWriter interface {
	Append(values ...any) (common.LSN, error)
}

// RecordReader yields the values of one raw log record in write order.
type RecordReader interface {
	NextInt() (int32, error)
	NextString() (string, error)
}

// WriteToLog appends r, tag first, and returns its LSN.
func WriteToLog(log LogWriter, r LogRecord) (common.LSN, error) {
	var values []any

	switch r := r.(type) {
	case CheckpointRecord:
		values = []any{int32(TypeCheckpoint)}
	case StartRecord:
		values = []any{int32(TypeStart), r.Txn}
	case CommitRecord:
		values = []any{int32(TypeCommit), r.Txn}
	case RollbackRecord:
		values = []any{int32(TypeRollback), r.Txn}
	case SetIntRecord:
		values = []any{
			int32(TypeSetInt),
			r.Txn,
			r.Block.FileName,
			r.Block.Number,
			r.Offset,
			r.OldValue,
			r.NewValue,
		}
	case SetStringRecord:
		values = []any{
			int32(TypeSetString),
			r.Txn,
			r.Block.FileName,
			r.Block.Number,
			r.Offset,
			r.OldValue,
			r.NewValue,
		}
	default:
		assert.Unreachable("unexpected log record %T", r)
	}

	lsn, err := log.Append(values...)
	if err != nil {
		return common.NilLSN, errors.Wrapf(err, "append %s", r.Op())
	}

	return lsn, nil
}

// ReadLogRecord decodes one raw record. An unrecognised tag yields
// ErrUnknownRecordTag.
func ReadLogRecord(rd RecordReader) (LogRecord, error) {
	tag, err := rd.NextInt()
	if err != nil {
		return nil, errors.Wrap(err, "read record tag")
	}

	switch LogRecordTypeTag(tag) {
	case TypeCheckpoint:
		return CheckpointRecord{}, nil
	case TypeStart:
		txn, err := rd.NextInt()
		if err != nil {
			return nil, errors.Wrap(err, "read start record")
		}
		return StartRecord{Txn: common.TxnID(txn)}, nil
	case TypeCommit:
		txn, err := rd.NextInt()
		if err != nil {
			return nil, errors.Wrap(err, "read commit record")
		}
		return CommitRecord{Txn: common.TxnID(txn)}, nil
	case TypeRollback:
		txn, err := rd.NextInt()
		if err != nil {
			return nil, errors.Wrap(err, "read rollback record")
		}
		return RollbackRecord{Txn: common.TxnID(txn)}, nil
	case TypeSetInt:
		return readSetInt(rd)
	case TypeSetString:
		return readSetString(rd)
	default:
		return nil, errors.Wrapf(ErrUnknownRecordTag, "tag %d", tag)
	}
}

type setHeader struct {
	txn    common.TxnID
	blk    common.BlockID
	offset int32
}

func readSetHeader(rd RecordReader) (setHeader, error) {
	txn, err := rd.NextInt()
	if err != nil {
		return setHeader{}, err
	}

	fileName, err := rd.NextString()
	if err != nil {
		return setHeader{}, err
	}

	blkNum, err := rd.NextInt()
	if err != nil {
		return setHeader{}, err
	}

	offset, err := rd.NextInt()
	if err != nil {
		return setHeader{}, err
	}

	return setHeader{
		txn:    common.TxnID(txn),
		blk:    common.NewBlockID(fileName, blkNum),
		offset: offset,
	}, nil
}

func readSetInt(rd RecordReader) (LogRecord, error) {
	h, err := readSetHeader(rd)
	if err != nil {
		return nil, errors.Wrap(err, "read setint record")
	}

	oldVal, err := rd.NextInt()
	if err != nil {
		return nil, errors.Wrap(err, "read setint old value")
	}

	newVal, err := rd.NextInt()
	if err != nil {
		return nil, errors.Wrap(err, "read setint new value")
	}

	return SetIntRecord{
		Txn:      h.txn,
		Block:    h.blk,
		Offset:   h.offset,
		OldValue: oldVal,
		NewValue: newVal,
	}, nil
}

func readSetString(rd RecordReader) (LogRecord, error) {
	h, err := readSetHeader(rd)
	if err != nil {
		return nil, errors.Wrap(err, "read setstring record")
	}

	oldVal, err := rd.NextString()
	if err != nil {
		return nil, errors.Wrap(err, "read setstring old value")
	}

	newVal, err := rd.NextString()
	if err != nil {
		return nil, errors.Wrap(err, "read setstring new value")
	}

	return SetStringRecord{
		Txn:      h.txn,
		Block:    h.blk,
		Offset:   h.offset,
		OldValue: oldVal,
		NewValue: newVal,
	}, nil
}
