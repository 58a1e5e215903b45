package recovery

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

type DumpFormat string

const (
	FormatText DumpFormat = "text"
	FormatJSON DumpFormat = "json"
)

var ErrUnknownFormat = errors.New("unknown dump format")

// Dump writes one line per log record, newest first unless forward is set.
func Dump(log LogManager, w io.Writer, forward bool) (int, error) {
	return DumpAs(log, w, forward, FormatText)
}

// DumpAs is Dump with a selectable line format. FormatJSON emits one JSON
// object per line.
func DumpAs(log LogManager, w io.Writer, forward bool, format DumpFormat) (int, error) {
	var write func(common.LSN, LogRecord) error

	switch format {
	case FormatText:
		write = func(_ common.LSN, rec LogRecord) error {
			_, err := fmt.Fprintln(w, rec)
			return err
		}
	case FormatJSON:
		var e jx.Encoder
		write = func(lsn common.LSN, rec LogRecord) error {
			e.Reset()
			encodeRecord(&e, lsn, rec)
			if _, err := w.Write(e.Bytes()); err != nil {
				return err
			}
			_, err := io.WriteString(w, "\n")
			return err
		}
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	count := 0
	err := walkLog(log, forward, func(lsn common.LSN, rec LogRecord) error {
		if err := write(lsn, rec); err != nil {
			return err
		}
		count++
		return nil
	})

	return count, err
}

func walkLog(log LogManager, forward bool, fn func(common.LSN, LogRecord) error) error {
	iter, err := log.Iterator()
	if err != nil {
		return err
	}

	if !forward {
		for iter.HasNext() {
			raw, err := iter.Next()
			if err != nil {
				return errors.Wrap(err, "read log backward")
			}

			if err := visit(raw.LSN(), raw, fn); err != nil {
				return err
			}
		}
		return nil
	}

	for iter.HasNext() {
		if _, err := iter.Next(); err != nil {
			return errors.Wrap(err, "rewind log")
		}
	}

	for iter.HasNextForward() {
		raw, err := iter.NextForward()
		if err != nil {
			return errors.Wrap(err, "read log forward")
		}

		if err := visit(raw.LSN(), raw, fn); err != nil {
			return err
		}
	}

	return nil
}

func visit(lsn common.LSN, raw RecordReader, fn func(common.LSN, LogRecord) error) error {
	rec, err := ReadLogRecord(raw)
	if err != nil {
		return errors.Wrapf(err, "record at lsn %d", lsn)
	}

	return fn(lsn, rec)
}

func encodeRecord(e *jx.Encoder, lsn common.LSN, rec LogRecord) {
	e.ObjStart()
	e.FieldStart("lsn")
	e.UInt64(uint64(lsn))
	e.FieldStart("op")
	e.Str(rec.Op().String())

	if rec.Op() != TypeCheckpoint {
		e.FieldStart("txn")
		e.Int32(int32(rec.TxnID()))
	}

	switch r := rec.(type) {
	case SetIntRecord:
		encodeLocation(e, r.Block, r.Offset)
		e.FieldStart("old")
		e.Int32(r.OldValue)
		e.FieldStart("new")
		e.Int32(r.NewValue)
	case SetStringRecord:
		encodeLocation(e, r.Block, r.Offset)
		e.FieldStart("old")
		e.Str(r.OldValue)
		e.FieldStart("new")
		e.Str(r.NewValue)
	}

	e.ObjEnd()
}

func encodeLocation(e *jx.Encoder, blk common.BlockID, offset int32) {
	e.FieldStart("file")
	e.Str(blk.FileName)
	e.FieldStart("block")
	e.Int32(blk.Number)
	e.FieldStart("offset")
	e.Int32(offset)
}
