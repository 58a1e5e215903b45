package app

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/bufferpool"
	"github.com/Blackdeer1524/StorageCore/src/cfg"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/recovery"
	"github.com/Blackdeer1524/StorageCore/src/storage/disk"
	"github.com/Blackdeer1524/StorageCore/src/wal"
)

// Storage bundles the disk manager, the log and the buffer pool built
// from one configuration.
type Storage struct {
	Disk *disk.Manager
	Log  *wal.Manager
	Pool *bufferpool.Manager

	logger src.Logger
}

func OpenStorage(config cfg.Config, fs afero.Fs, logger src.Logger) (*Storage, error) {
	fm, err := disk.New(config.DataDir, fs, config.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("disk manager: %w", err)
	}

	log, err := wal.New(fm, config.LogFile, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open log: %w", err), fm.Close())
	}

	replacer, err := bufferpool.NewReplacer(bufferpool.Policy(config.Replacer))
	if err != nil {
		return nil, errors.Join(err, fm.Close())
	}

	pool, err := bufferpool.New(config.PoolSize, replacer, fm, log, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("buffer pool: %w", err), fm.Close())
	}

	logger.Infow(
		"storage opened",
		"data_dir", config.DataDir,
		"block_size", config.BlockSize,
		"pool_size", config.PoolSize,
		"replacer", config.Replacer,
		"log_block", log.LastBlock().Number,
	)

	return &Storage{
		Disk:   fm,
		Log:    log,
		Pool:   pool,
		logger: logger,
	}, nil
}

func (s *Storage) RecoveryManager(txn common.TxnID) *recovery.Manager {
	return recovery.NewManager(txn, s.Pool, s.Log, s.logger)
}

// Recover runs recovery for each transaction in order.
func (s *Storage) Recover(txns ...common.TxnID) error {
	for _, txn := range txns {
		if err := s.RecoveryManager(txn).Recover(); err != nil {
			return fmt.Errorf("recover txn %d: %w", txn, err)
		}
	}

	return nil
}

// Close writes back every modified buffer and releases open files.
func (s *Storage) Close() error {
	flushErr := s.Pool.FlushAllModified()
	if flushErr != nil {
		s.logger.Errorw("failed to flush buffers", "error", flushErr)
	}

	return errors.Join(flushErr, s.Disk.Close())
}
