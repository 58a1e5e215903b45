package recovery

import (
	"fmt"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

type LogRecordTypeTag int32

// Type tags for each log record type. The values are part of the on-disk
// format.
const (
	TypeCheckpoint LogRecordTypeTag = iota
	TypeStart
	TypeCommit
	TypeRollback
	TypeSetInt
	TypeSetString
)

func (t LogRecordTypeTag) String() string {
	switch t {
	case TypeCheckpoint:
		return "CHECKPOINT"
	case TypeStart:
		return "START"
	case TypeCommit:
		return "COMMIT"
	case TypeRollback:
		return "ROLLBACK"
	case TypeSetInt:
		return "SETINT"
	case TypeSetString:
		return "SETSTRING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(t))
	}
}

// LogRecord is implemented only by the record types of this package.
type LogRecord interface {
	Op() LogRecordTypeTag
	TxnID() common.TxnID
	String() string

	isLogRecord()
}

var (
	_ LogRecord = CheckpointRecord{}
	_ LogRecord = StartRecord{}
	_ LogRecord = CommitRecord{}
	_ LogRecord = RollbackRecord{}
	_ LogRecord = SetIntRecord{}
	_ LogRecord = SetStringRecord{}
)

// CheckpointRecord marks a point before which no recovery is needed.
type CheckpointRecord struct{}

func (CheckpointRecord) Op() LogRecordTypeTag { return TypeCheckpoint }
func (CheckpointRecord) TxnID() common.TxnID  { return common.NilTxnID }
func (CheckpointRecord) String() string       { return "<CHECKPOINT>" }
func (CheckpointRecord) isLogRecord()         {}

type StartRecord struct {
	Txn common.TxnID
}

func (r StartRecord) Op() LogRecordTypeTag { return TypeStart }
func (r StartRecord) TxnID() common.TxnID  { return r.Txn }
func (r StartRecord) String() string       { return fmt.Sprintf("<START %d>", r.Txn) }
func (StartRecord) isLogRecord()           {}

type CommitRecord struct {
	Txn common.TxnID
}

func (r CommitRecord) Op() LogRecordTypeTag { return TypeCommit }
func (r CommitRecord) TxnID() common.TxnID  { return r.Txn }
func (r CommitRecord) String() string       { return fmt.Sprintf("<COMMIT %d>", r.Txn) }
func (CommitRecord) isLogRecord()           {}

type RollbackRecord struct {
	Txn common.TxnID
}

func (r RollbackRecord) Op() LogRecordTypeTag { return TypeRollback }
func (r RollbackRecord) TxnID() common.TxnID  { return r.Txn }
func (r RollbackRecord) String() string       { return fmt.Sprintf("<ROLLBACK %d>", r.Txn) }
func (RollbackRecord) isLogRecord()           {}

// SetIntRecord describes an in-place change of a 4-byte integer.
type SetIntRecord struct {
	Txn      common.TxnID
	Block    common.BlockID
	Offset   int32
	OldValue int32
	NewValue int32
}

func (r SetIntRecord) Op() LogRecordTypeTag { return TypeSetInt }
func (r SetIntRecord) TxnID() common.TxnID  { return r.Txn }
func (SetIntRecord) isLogRecord()           {}

func (r SetIntRecord) String() string {
	return fmt.Sprintf(
		"<SETINT %d %s %d %d %d>",
		r.Txn,
		r.Block,
		r.Offset,
		r.OldValue,
		r.NewValue,
	)
}

// SetStringRecord describes an in-place change of a length-prefixed string.
type SetStringRecord struct {
	Txn      common.TxnID
	Block    common.BlockID
	Offset   int32
	OldValue string
	NewValue string
}

func (r SetStringRecord) Op() LogRecordTypeTag { return TypeSetString }
func (r SetStringRecord) TxnID() common.TxnID  { return r.Txn }
func (SetStringRecord) isLogRecord()           {}

func (r SetStringRecord) String() string {
	return fmt.Sprintf(
		"<SETSTRING %d %s %d %q %q>",
		r.Txn,
		r.Block,
		r.Offset,
		r.OldValue,
		r.NewValue,
	)
}
