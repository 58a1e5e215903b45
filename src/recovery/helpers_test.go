package recovery

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/StorageCore/src/bufferpool"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/disk"
	"github.com/Blackdeer1524/StorageCore/src/wal"
)

const testBlockSize = 400

type env struct {
	fm   *disk.Manager
	log  *wal.Manager
	pool *bufferpool.Manager
}

func newEnv(t *testing.T, poolSize uint64) env {
	fm, err := disk.New("/db", afero.NewMemMapFs(), testBlockSize)
	require.NoError(t, err)

	log, err := wal.New(fm, "recovery.log", zap.NewNop().Sugar())
	require.NoError(t, err)

	pool, err := bufferpool.New(
		poolSize,
		bufferpool.NewFIFOReplacer(),
		fm,
		log,
		zap.NewNop().Sugar(),
	)
	require.NoError(t, err)

	return env{fm: fm, log: log, pool: pool}
}

func (e env) manager(txn int32) *Manager {
	return NewManager(common.TxnID(txn), e.pool, e.log, zap.NewNop().Sugar())
}
