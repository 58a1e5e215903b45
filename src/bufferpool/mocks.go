package bufferpool

import (
	"github.com/stretchr/testify/mock"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

type MockDiskManager struct {
	mock.Mock
	blockSize int
}

var (
	_ DiskManager = &MockDiskManager{}
	_ Replacer    = &MockReplacer{}
	_ LogFlusher  = &MockLogFlusher{}
)

func NewMockDiskManager(blockSize int) *MockDiskManager {
	return &MockDiskManager{blockSize: blockSize}
}

func (m *MockDiskManager) Read(blk common.BlockID, pg *page.Page) error {
	args := m.Called(blk, pg)
	return args.Error(0)
}

func (m *MockDiskManager) Write(blk common.BlockID, pg *page.Page) error {
	args := m.Called(blk, pg)
	return args.Error(0)
}

func (m *MockDiskManager) AppendPage(
	fileName string,
	pg *page.Page,
) (common.BlockID, error) {
	args := m.Called(fileName, pg)
	return args.Get(0).(common.BlockID), args.Error(1)
}

func (m *MockDiskManager) BlockSize() int {
	return m.blockSize
}

type MockReplacer struct {
	mock.Mock
}

func (m *MockReplacer) Pin(frameID uint64) {
	m.Called(frameID)
}

func (m *MockReplacer) Unpin(frameID uint64) {
	m.Called(frameID)
}

func (m *MockReplacer) ChooseVictim() (uint64, error) {
	args := m.Called()
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockReplacer) GetSize() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

type MockLogFlusher struct {
	mock.Mock
}

func (m *MockLogFlusher) Flush(lsn common.LSN) error {
	args := m.Called(lsn)
	return args.Error(0)
}
