package bufferpool

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/panjf2000/ants"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/disk"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
	"github.com/Blackdeer1524/StorageCore/src/wal"
)

const testBlockSize = 400

func newMockedManager(
	t *testing.T,
	poolSize uint64,
	replacer Replacer,
) (*Manager, *MockDiskManager, *MockLogFlusher) {
	mockDisk := NewMockDiskManager(testBlockSize)
	mockLog := new(MockLogFlusher)

	manager, err := New(poolSize, replacer, mockDisk, mockLog, zap.NewNop().Sugar())
	require.NoError(t, err)

	return manager, mockDisk, mockLog
}

func newDiskManager(t *testing.T, poolSize uint64, policy Policy) (*Manager, *disk.Manager) {
	fm, err := disk.New("/db", afero.NewMemMapFs(), testBlockSize)
	require.NoError(t, err)

	log, err := wal.New(fm, "test.log", zap.NewNop().Sugar())
	require.NoError(t, err)

	replacer, err := NewReplacer(policy)
	require.NoError(t, err)

	manager, err := New(poolSize, replacer, fm, log, zap.NewNop().Sugar())
	require.NoError(t, err)

	return manager, fm
}

func TestPin_Cached(t *testing.T) {
	mockReplacer := new(MockReplacer)
	mockReplacer.On("Unpin", uint64(0)).Return()

	manager, mockDisk, _ := newMockedManager(t, 1, mockReplacer)

	blk := common.NewBlockID("file", 0)

	mockReplacer.On("ChooseVictim").Return(uint64(0), nil).Once()
	mockReplacer.On("Pin", uint64(0)).Return().Once()
	mockDisk.On("Read", blk, mock.Anything).Return(nil).Once()

	first, err := manager.Pin(blk)
	require.NoError(t, err)

	second, err := manager.Pin(blk)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 2, second.PinCount())
	assert.Equal(t, uint64(0), manager.Available())

	// не должно быть повторного считывания с диска
	mockDisk.AssertNumberOfCalls(t, "Read", 1)
	mockReplacer.AssertExpectations(t)
	mockDisk.AssertExpectations(t)
}

func TestPin_NoSpaceLeft(t *testing.T) {
	mockReplacer := new(MockReplacer)
	mockReplacer.On("Unpin", uint64(0)).Return()

	manager, mockDisk, _ := newMockedManager(t, 1, mockReplacer)

	mockReplacer.On("ChooseVictim").Return(uint64(0), ErrNoVictim)

	buf, err := manager.Pin(common.NewBlockID("file", 3))
	assert.ErrorIs(t, err, ErrNoSpaceLeft)
	assert.Nil(t, buf)

	mockDisk.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestPin_VictimFlushedAfterLog(t *testing.T) {
	manager, mockDisk, mockLog := newMockedManager(t, 1, NewFIFOReplacer())

	first := common.NewBlockID("file", 1)
	second := common.NewBlockID("file", 2)

	var calls []string
	mockDisk.On("Read", mock.Anything, mock.Anything).Return(nil)
	mockLog.On("Flush", common.LSN(42)).Run(func(mock.Arguments) {
		calls = append(calls, "log")
	}).Return(nil).Once()
	mockDisk.On("Write", first, mock.Anything).Run(func(mock.Arguments) {
		calls = append(calls, "disk")
	}).Return(nil).Once()

	buf, err := manager.Pin(first)
	require.NoError(t, err)
	require.NoError(t, buf.SetInt(0, 5, 7, 42))
	manager.Unpin(buf)

	buf, err = manager.Pin(second)
	require.NoError(t, err)

	assert.Equal(t, second, buf.Block().Unwrap())
	assert.Equal(t, common.NilTxnID, buf.ModifyingTxn())
	assert.Equal(t, []string{"log", "disk"}, calls)

	mockLog.AssertExpectations(t)
	mockDisk.AssertExpectations(t)
}

func TestPin_ReadErrorKeepsFrameUsable(t *testing.T) {
	manager, mockDisk, _ := newMockedManager(t, 1, NewFIFOReplacer())

	broken := common.NewBlockID("file", 1)
	healthy := common.NewBlockID("file", 2)

	mockDisk.On("Read", broken, mock.Anything).Return(errors.New("io error"))
	mockDisk.On("Read", healthy, mock.Anything).Return(nil)

	_, err := manager.Pin(broken)
	require.Error(t, err)
	assert.Equal(t, uint64(1), manager.Available())

	_, ok := manager.Mapping(broken)
	assert.False(t, ok)

	buf, err := manager.Pin(healthy)
	require.NoError(t, err)
	assert.Equal(t, healthy, buf.Block().Unwrap())
}

func TestPin_FlushErrorKeepsVictimAssigned(t *testing.T) {
	manager, mockDisk, mockLog := newMockedManager(t, 1, NewFIFOReplacer())

	first := common.NewBlockID("file", 1)

	mockDisk.On("Read", mock.Anything, mock.Anything).Return(nil)
	mockLog.On("Flush", mock.Anything).Return(errors.New("log is gone"))

	buf, err := manager.Pin(first)
	require.NoError(t, err)
	require.NoError(t, buf.SetInt(0, 5, 7, 42))
	manager.Unpin(buf)

	_, err = manager.Pin(common.NewBlockID("file", 2))
	require.Error(t, err)

	same, ok := manager.Mapping(first)
	require.True(t, ok)
	assert.Same(t, buf, same)
	assert.True(t, same.IsModified())
	assert.Equal(t, uint64(1), manager.Available())
}

func TestFIFOReplacementScenario(t *testing.T) {
	manager, _ := newDiskManager(t, 8, PolicyFIFO)

	buffers := make([]*Buffer, 9)
	for i := 1; i <= 8; i++ {
		//nolint:gosec
		blk := common.NewBlockID(fmt.Sprintf("filename%d", i), int32(i))

		buf, err := manager.Pin(blk)
		require.NoError(t, err)
		buffers[i] = buf
	}
	assert.Equal(t, uint64(0), manager.Available())

	manager.Unpin(buffers[2])
	manager.Unpin(buffers[3])
	assert.Equal(t, uint64(2), manager.Available())

	blk9 := common.NewBlockID("filename9", 9)
	buf9, err := manager.Pin(blk9)
	require.NoError(t, err)

	assert.Same(t, buffers[2], buf9)
	assert.Equal(t, blk9, buffers[2].Block().Unwrap())

	_, ok := manager.Mapping(common.NewBlockID("filename2", 2))
	assert.False(t, ok)

	mapped, ok := manager.Mapping(common.NewBlockID("filename3", 3))
	require.True(t, ok)
	assert.Same(t, buffers[3], mapped)

	buf10, err := manager.Pin(common.NewBlockID("filename10", 10))
	require.NoError(t, err)
	assert.Same(t, buffers[3], buf10)

	_, err = manager.Pin(common.NewBlockID("filename11", 11))
	assert.ErrorIs(t, err, ErrNoSpaceLeft)
	assert.Equal(t, uint64(0), manager.Available())
}

func TestFIFOOrderIgnoresUnpinOrder(t *testing.T) {
	blocks := []common.BlockID{
		common.NewBlockID("f", 0),
		common.NewBlockID("f", 1),
		common.NewBlockID("f", 2),
	}

	for _, tc := range []struct {
		policy Policy
		victim int
	}{
		{policy: PolicyFIFO, victim: 0},
		{policy: PolicyLRU, victim: 2},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			manager, _ := newDiskManager(t, 3, tc.policy)

			buffers := make([]*Buffer, len(blocks))
			for i, blk := range blocks {
				buf, err := manager.Pin(blk)
				require.NoError(t, err)
				buffers[i] = buf
			}

			manager.Unpin(buffers[2])
			manager.Unpin(buffers[0])
			manager.Unpin(buffers[1])

			buf, err := manager.Pin(common.NewBlockID("f", 3))
			require.NoError(t, err)
			assert.Same(t, buffers[tc.victim], buf)
		})
	}
}

func TestAvailableAccounting(t *testing.T) {
	manager, _ := newDiskManager(t, 3, PolicyFIFO)
	blk := common.NewBlockID("f", 0)

	a, err := manager.Pin(blk)
	require.NoError(t, err)
	b, err := manager.Pin(blk)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, uint64(2), manager.Available())

	manager.Unpin(a)
	assert.Equal(t, uint64(2), manager.Available())
	assert.True(t, a.IsPinned())

	manager.Unpin(a)
	assert.Equal(t, uint64(3), manager.Available())

	// unpinning an unpinned buffer changes nothing
	manager.Unpin(a)
	assert.Equal(t, uint64(3), manager.Available())
	assert.Equal(t, 0, a.PinCount())

	require.NoError(t, manager.EnsureAllUnpinned())
}

func TestFlushAllOnlyWritesTxnBuffers(t *testing.T) {
	manager, fm := newDiskManager(t, 2, PolicyFIFO)

	blkA := common.NewBlockID("data", 0)
	blkB := common.NewBlockID("data", 1)

	a, err := manager.Pin(blkA)
	require.NoError(t, err)
	b, err := manager.Pin(blkB)
	require.NoError(t, err)

	require.NoError(t, a.SetInt(8, 10, 1, common.NilLSN))
	require.NoError(t, b.SetString(8, "txn2", 2, common.NilLSN))

	require.NoError(t, manager.FlushAll(1))
	assert.False(t, a.IsModified())
	assert.Equal(t, common.TxnID(2), b.ModifyingTxn())

	onDisk := page.New(testBlockSize)
	require.NoError(t, fm.Read(blkA, onDisk))
	assert.Equal(t, int32(10), onDisk.GetInt(8))

	require.NoError(t, fm.Read(blkB, onDisk))
	assert.Equal(t, int32(0), onDisk.GetInt(8))

	require.NoError(t, manager.FlushAllModified())
	require.NoError(t, fm.Read(blkB, onDisk))
	assert.Equal(t, "txn2", onDisk.GetString(8))

	manager.Unpin(a)
	manager.Unpin(b)
	require.NoError(t, manager.EnsureAllUnpinned())
}

func TestPinNew(t *testing.T) {
	manager, fm := newDiskManager(t, 2, PolicyFIFO)

	buf, err := manager.PinNew("fresh", PageFormatterFunc(func(p *page.Page) {
		_ = p.SetInt(0, 99)
	}))
	require.NoError(t, err)

	assert.Equal(t, common.NewBlockID("fresh", 0), buf.Block().Unwrap())
	assert.Equal(t, int32(99), buf.GetInt(0))

	size, err := fm.Size("fresh")
	require.NoError(t, err)
	assert.Equal(t, int32(1), size)

	again, err := manager.Pin(common.NewBlockID("fresh", 0))
	require.NoError(t, err)
	assert.Same(t, buf, again)

	require.Error(t, manager.EnsureAllUnpinned())
	require.NoError(t, manager.EnsureAllUnpinned(common.NewBlockID("fresh", 0)))
}

func TestConcurrentPinUnpin(t *testing.T) {
	manager, _ := newDiskManager(t, 4, PolicyFIFO)

	workers, err := ants.NewPool(8)
	require.NoError(t, err)
	defer workers.Release()

	const tasks = 200

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)

	for i := range tasks {
		wg.Add(1)
		//nolint:gosec
		blk := common.NewBlockID("shared", int32(i%6))

		err := workers.Submit(func() {
			defer wg.Done()

			buf, err := manager.Pin(blk)
			if errors.Is(err, ErrNoSpaceLeft) {
				return
			}
			if err == nil && buf.Block().Unwrap() != blk {
				err = fmt.Errorf("pinned %v, got %v", blk, buf.Block())
			}
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return
			}

			manager.Unpin(buf)
		})
		require.NoError(t, err)
	}

	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, uint64(4), manager.Available())
	require.NoError(t, manager.EnsureAllUnpinned())
}
