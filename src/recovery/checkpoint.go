package recovery

import (
	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

type ModifiedFlusher interface {
	FlushAllModified() error
}

// Checkpoint writes a quiescent checkpoint: every modified buffer is
// flushed, then a checkpoint record is logged and flushed. No transaction
// may be active while it runs.
func Checkpoint(pool ModifiedFlusher, log LogManager) (common.LSN, error) {
	if err := pool.FlushAllModified(); err != nil {
		return common.NilLSN, errors.Wrap(err, "flush buffers")
	}

	lsn, err := WriteToLog(log, CheckpointRecord{})
	if err != nil {
		return common.NilLSN, err
	}

	if err := log.Flush(lsn); err != nil {
		return common.NilLSN, errors.Wrap(err, "flush checkpoint")
	}

	return lsn, nil
}
