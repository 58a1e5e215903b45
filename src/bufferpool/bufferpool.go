package bufferpool

import (
	"sync"

	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/pkg/assert"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

var (
	ErrNoSpaceLeft = errors.New("buffer pool is exhausted: every buffer is pinned")
	ErrNoVictim    = errors.New("no victim available")
)

type Replacer interface {
	Pin(frameID uint64)
	Unpin(frameID uint64)
	ChooseVictim() (uint64, error)
	GetSize() uint64
}

type DiskManager interface {
	Read(blk common.BlockID, pg *page.Page) error
	Write(blk common.BlockID, pg *page.Page) error
	AppendPage(fileName string, pg *page.Page) (common.BlockID, error)
	BlockSize() int
}

// LogFlusher makes log records durable up to an LSN. Modified buffers are
// written only after the log covering their last change.
type LogFlusher interface {
	Flush(lsn common.LSN) error
}

// PageFormatter initialises the contents of a freshly appended block.
type PageFormatter interface {
	Format(p *page.Page)
}

type PageFormatterFunc func(p *page.Page)

func (f PageFormatterFunc) Format(p *page.Page) {
	f(p)
}

type BufferPool interface {
	Pin(blk common.BlockID) (*Buffer, error)
	PinNew(fileName string, fmtr PageFormatter) (*Buffer, error)
	Unpin(buf *Buffer)
	FlushAll(txn common.TxnID) error
	Available() uint64
}

type Manager struct {
	poolSize     uint64
	frames       []*Buffer
	blockToFrame map[common.BlockID]uint64
	numAvailable uint64

	replacer Replacer
	metrics  poolMetrics
	log      src.Logger

	mu sync.Mutex
}

var (
	_ BufferPool = &Manager{}
)

func New(
	poolSize uint64,
	replacer Replacer,
	diskManager DiskManager,
	logFlusher LogFlusher,
	log src.Logger,
	opts ...Option,
) (*Manager, error) {
	assert.Assert(poolSize > 0, "pool size must be greater than zero")

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	frames := make([]*Buffer, poolSize)
	for i := range poolSize {
		frames[i] = newBuffer(i, diskManager, logFlusher)
		replacer.Unpin(i)
	}

	metrics, err := newPoolMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Manager{
		poolSize:     poolSize,
		frames:       frames,
		blockToFrame: make(map[common.BlockID]uint64),
		numAvailable: poolSize,
		replacer:     replacer,
		metrics:      metrics,
		log:          log,
	}, nil
}

// Pin returns the buffer holding blk, reading the block into a victim frame
// if it is not cached. Fails with ErrNoSpaceLeft when every buffer is pinned.
func (m *Manager) Pin(blk common.BlockID) (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frameID, ok := m.blockToFrame[blk]; ok {
		m.metrics.hit()
		buf := m.frames[frameID]
		m.pin(buf)
		return buf, nil
	}

	buf, err := m.reserveFrame()
	if err != nil {
		return nil, err
	}

	if err := buf.readBlock(blk); err != nil {
		m.replacer.Unpin(buf.frameID)
		return nil, errors.Wrapf(err, "read %s", blk)
	}

	m.blockToFrame[blk] = buf.frameID
	m.pin(buf)

	return buf, nil
}

// PinNew appends a block to fileName, formats it with fmtr and pins it.
func (m *Manager) PinNew(fileName string, fmtr PageFormatter) (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, err := m.reserveFrame()
	if err != nil {
		return nil, err
	}

	if err := buf.appendFormatted(fileName, fmtr); err != nil {
		m.replacer.Unpin(buf.frameID)
		return nil, errors.Wrapf(err, "append block to %s", fileName)
	}

	m.blockToFrame[buf.blk.Unwrap()] = buf.frameID
	m.pin(buf)

	return buf, nil
}

// reserveFrame picks an unpinned frame and detaches it from its old block.
// On error the frame keeps its previous assignment.
func (m *Manager) reserveFrame() (*Buffer, error) {
	frameID, err := m.replacer.ChooseVictim()
	if errors.Is(err, ErrNoVictim) {
		m.metrics.exhausted()
		return nil, ErrNoSpaceLeft
	} else if err != nil {
		return nil, err
	}

	buf := m.frames[frameID]
	assert.Assert(!buf.IsPinned(), "replacer chose pinned frame %d", frameID)

	if buf.blk.IsSome() {
		old := buf.blk.Unwrap()
		if err := buf.flush(); err != nil {
			m.replacer.Unpin(frameID)
			return nil, errors.Wrapf(err, "flush victim %s", old)
		}

		delete(m.blockToFrame, old)
		buf.blk.Clear()
		m.metrics.evicted()

		m.log.Debugw("evicted block", "block", old, "frame", frameID)
	}

	return buf, nil
}

func (m *Manager) pin(buf *Buffer) {
	if buf.pins == 0 {
		m.numAvailable--
		m.replacer.Pin(buf.frameID)
	}
	buf.pins++
	m.metrics.pinned()
}

// Unpin releases one pin on buf. Unpinning an unpinned buffer is a no-op.
func (m *Manager) Unpin(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if buf.pins == 0 {
		m.log.Warnw("unpin of an unpinned buffer", "block", buf.blk, "frame", buf.frameID)
		return
	}

	buf.pins--
	if buf.pins == 0 {
		m.numAvailable++
		m.replacer.Unpin(buf.frameID)
	}
}

// FlushAll writes every buffer last modified by txn.
func (m *Manager) FlushAll(txn common.TxnID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, buf := range m.frames {
		if buf.ModifyingTxn() != txn {
			continue
		}

		if err := buf.flush(); err != nil {
			return errors.Wrapf(err, "flush %s of txn %d", buf.blk, txn)
		}
	}

	return nil
}

// FlushAllModified writes every modified buffer regardless of transaction.
func (m *Manager) FlushAllModified() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, buf := range m.frames {
		if err := buf.flush(); err != nil {
			return errors.Wrapf(err, "flush %s", buf.blk)
		}
	}

	return nil
}

func (m *Manager) Available() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.numAvailable
}

func (m *Manager) PoolSize() uint64 {
	return m.poolSize
}

// Mapping returns the buffer currently assigned to blk without pinning it.
func (m *Manager) Mapping(blk common.BlockID) (*Buffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.blockToFrame[blk]
	if !ok {
		return nil, false
	}
	return m.frames[frameID], true
}
