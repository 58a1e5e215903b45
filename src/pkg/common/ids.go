package common

import "fmt"

type TxnID int32

// NilTxnID marks a buffer that no transaction has modified.
const NilTxnID TxnID = -1

type LSN uint64

// NilLSN is never assigned to a log record.
const NilLSN LSN = 0

// BlockID identifies a fixed-size block by file name and block number.
type BlockID struct {
	FileName string
	Number   int32
}

func NewBlockID(fileName string, number int32) BlockID {
	return BlockID{FileName: fileName, Number: number}
}

func (b BlockID) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.FileName, b.Number)
}
