package wal

import (
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

var ErrRecordOverrun = errors.New("read past the end of the log record")

// Record is a read handle over the bytes of one log record. Values are read
// in the order they were appended.
type Record struct {
	data *page.Page
	pos  int
	lsn  common.LSN
}

func newRecord(pg *page.Page, start, end int, lsn common.LSN) *Record {
	data := make([]byte, end-start)
	copy(data, pg.GetData()[start:end])

	return &Record{
		data: page.FromBytes(data),
		lsn:  lsn,
	}
}

func (r *Record) LSN() common.LSN {
	return r.lsn
}

func (r *Record) Len() int {
	return r.data.Size()
}

func (r *Record) NextInt() (int32, error) {
	if r.pos+intSize > r.data.Size() {
		return 0, errors.Wrapf(ErrRecordOverrun, "int at %d, record of %d bytes", r.pos, r.data.Size())
	}

	v := r.data.GetInt(r.pos)
	r.pos += intSize
	return v, nil
}

func (r *Record) NextString() (string, error) {
	n, err := r.NextInt()
	if err != nil {
		return "", err
	}

	if n < 0 || r.pos+int(n) > r.data.Size() {
		r.pos -= intSize
		return "", errors.Wrapf(ErrRecordOverrun, "string of %d bytes at %d", n, r.pos)
	}

	s := string(r.data.GetData()[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}
