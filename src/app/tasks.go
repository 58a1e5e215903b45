package app

import (
	"context"
	"fmt"
	"io"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/recovery"
)

func RecoverTask(txns []common.TxnID) Task {
	return func(ctx context.Context, s *Storage, log src.Logger) error {
		for _, txn := range txns {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := s.Recover(txn); err != nil {
				return err
			}
		}

		log.Infow("recovery complete", "txns", txns)
		return nil
	}
}

func DumpLogTask(w io.Writer, forward bool, format recovery.DumpFormat) Task {
	return func(_ context.Context, s *Storage, log src.Logger) error {
		n, err := recovery.DumpAs(s.Log, w, forward, format)
		if err != nil {
			return fmt.Errorf("dump log: %w", err)
		}

		log.Infow("dumped log", "records", n, "forward", forward, "format", format)
		return nil
	}
}

func CheckpointTask(w io.Writer) Task {
	return func(_ context.Context, s *Storage, _ src.Logger) error {
		lsn, err := recovery.Checkpoint(s.Pool, s.Log)
		if err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}

		_, err = fmt.Fprintf(w, "checkpoint written at lsn %d\n", lsn)
		return err
	}
}

func StatsTask(w io.Writer) Task {
	return func(_ context.Context, s *Storage, _ src.Logger) error {
		_, err := fmt.Fprintf(
			w,
			"pool size: %d\navailable: %d\nblock size: %d\nlog block: %d\nlatest lsn: %d\n",
			s.Pool.PoolSize(),
			s.Pool.Available(),
			s.Disk.BlockSize(),
			s.Log.LastBlock().Number,
			s.Log.LatestLSN(),
		)
		return err
	}
}
