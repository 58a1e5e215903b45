package recovery

import (
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

// TxnLogChain appends records on behalf of a transaction without touching
// any buffer. The first error stops the chain and is kept in Err.
type TxnLogChain struct {
	log   LogWriter
	txnID common.TxnID

	lastLSN common.LSN
	err     error
}

func NewTxnLogChain(log LogWriter, txnID common.TxnID) *TxnLogChain {
	return &TxnLogChain{
		log:     log,
		txnID:   txnID,
		lastLSN: common.NilLSN,
	}
}

func (c *TxnLogChain) SwitchTransactionID(txnID common.TxnID) *TxnLogChain {
	if c.err != nil {
		return c
	}

	c.txnID = txnID
	return c
}

func (c *TxnLogChain) write(r LogRecord) *TxnLogChain {
	if c.err != nil {
		return c
	}

	c.lastLSN, c.err = WriteToLog(c.log, r)
	return c
}

func (c *TxnLogChain) Begin() *TxnLogChain {
	return c.write(StartRecord{Txn: c.txnID})
}

func (c *TxnLogChain) SetInt(
	blk common.BlockID,
	offset int32,
	oldValue, newValue int32,
) *TxnLogChain {
	return c.write(SetIntRecord{
		Txn:      c.txnID,
		Block:    blk,
		Offset:   offset,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

func (c *TxnLogChain) SetString(
	blk common.BlockID,
	offset int32,
	oldValue, newValue string,
) *TxnLogChain {
	return c.write(SetStringRecord{
		Txn:      c.txnID,
		Block:    blk,
		Offset:   offset,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

func (c *TxnLogChain) Commit() *TxnLogChain {
	return c.write(CommitRecord{Txn: c.txnID})
}

func (c *TxnLogChain) Rollback() *TxnLogChain {
	return c.write(RollbackRecord{Txn: c.txnID})
}

func (c *TxnLogChain) Checkpoint() *TxnLogChain {
	return c.write(CheckpointRecord{})
}

func (c *TxnLogChain) LSN() common.LSN {
	return c.lastLSN
}

func (c *TxnLogChain) Err() error {
	return c.err
}
