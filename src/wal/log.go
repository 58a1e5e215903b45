package wal

import (
	"sync"

	"github.com/go-faster/errors"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

// Block layout:
//
//	[lastPos][firstFwd][rec 1 data][back][fwd][rec 2 data][back][fwd]...
//
// lastPos is the position of the pointer pair that closes the newest record
// of the block, 0 when the block is empty. The header itself acts as the
// sentinel pair at position 0, so firstFwd points at the pair of the first
// record. A record's data lies between its back pair and its own pair.
const (
	intSize    = page.IntSize
	pairSize   = 2 * intSize
	headerSize = pairSize
)

var (
	ErrRecordTooLarge   = errors.New("log record does not fit into a block")
	ErrUnsupportedValue = errors.New("unsupported log value type")
)

type FileManager interface {
	Read(blk common.BlockID, pg *page.Page) error
	Write(blk common.BlockID, pg *page.Page) error
	AppendPage(fileName string, pg *page.Page) (common.BlockID, error)
	Size(fileName string) (int32, error)
	BlockSize() int
}

type Manager struct {
	fm      FileManager
	logFile string

	logPage    *page.Page
	currentBlk common.BlockID

	latestLSN    common.LSN
	lastSavedLSN common.LSN

	log src.Logger

	mu sync.Mutex
}

func New(fm FileManager, logFile string, log src.Logger) (*Manager, error) {
	bs := fm.BlockSize()
	if bs <= headerSize+pairSize {
		return nil, errors.Errorf("block size %d is too small for the log", bs)
	}

	m := &Manager{
		fm:      fm,
		logFile: logFile,
		logPage: page.New(bs),
		log:     log,
	}

	size, err := fm.Size(logFile)
	if err != nil {
		return nil, errors.Wrap(err, "log size")
	}

	if size == 0 {
		if err := m.appendNewBlock(); err != nil {
			return nil, err
		}
		return m, nil
	}

	m.currentBlk = common.NewBlockID(logFile, size-1)
	if err := fm.Read(m.currentBlk, m.logPage); err != nil {
		return nil, errors.Wrap(err, "read last log block")
	}

	m.latestLSN = m.lsnOf(int(m.logPage.GetInt(0)))
	if m.logPage.GetInt(0) == 0 && size > 1 {
		// the block was appended by a rollover whose record never reached
		// disk, so the newest record is in the block before it
		prev := page.New(bs)
		prevBlk := common.NewBlockID(logFile, size-2)
		if err := fm.Read(prevBlk, prev); err != nil {
			return nil, errors.Wrap(err, "read previous log block")
		}
		//nolint:gosec
		m.latestLSN = common.LSN(int64(prevBlk.Number)*int64(bs) + int64(prev.GetInt(0)))
	}
	m.lastSavedLSN = m.latestLSN

	log.Debugw("opened log", "file", logFile, "blocks", size, "latest_lsn", m.latestLSN)

	return m, nil
}

func (m *Manager) lsnOf(pairPos int) common.LSN {
	//nolint:gosec
	return common.LSN(int64(m.currentBlk.Number)*int64(m.logPage.Size()) + int64(pairPos))
}

func (m *Manager) appendNewBlock() error {
	m.logPage.Clear()

	blk, err := m.fm.AppendPage(m.logFile, m.logPage)
	if err != nil {
		return errors.Wrap(err, "append log block")
	}

	m.currentBlk = blk
	return nil
}

func (m *Manager) flush() error {
	if err := m.fm.Write(m.currentBlk, m.logPage); err != nil {
		return errors.Wrapf(err, "flush log block %s", m.currentBlk)
	}

	m.lastSavedLSN = m.latestLSN
	return nil
}

func valueSize(v any) (int, error) {
	switch v := v.(type) {
	case int32, int, common.TxnID:
		return intSize, nil
	case string:
		return page.MaxLength(len(v)), nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedValue, "%T", v)
	}
}

func (m *Manager) writeValue(pos int, v any) (int, error) {
	switch v := v.(type) {
	case int32:
		return intSize, m.logPage.SetInt(pos, v)
	case int:
		//nolint:gosec
		return intSize, m.logPage.SetInt(pos, int32(v))
	case common.TxnID:
		return intSize, m.logPage.SetInt(pos, int32(v))
	case string:
		return page.MaxLength(len(v)), m.logPage.SetString(pos, v)
	default:
		return 0, errors.Wrapf(ErrUnsupportedValue, "%T", v)
	}
}

// Append writes a record made of values and returns its LSN. The record
// becomes durable only after a Flush covering that LSN.
func (m *Manager) Append(values ...any) (common.LSN, error) {
	dataSize := 0
	for _, v := range values {
		n, err := valueSize(v)
		if err != nil {
			return common.NilLSN, err
		}
		dataSize += n
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bs := m.logPage.Size()
	if dataSize+pairSize > bs-headerSize {
		return common.NilLSN, errors.Wrapf(
			ErrRecordTooLarge,
			"%d bytes, block size %d",
			dataSize,
			bs,
		)
	}

	lastPos := int(m.logPage.GetInt(0))
	start := lastPos + pairSize
	if start+dataSize+pairSize > bs {
		if err := m.flush(); err != nil {
			return common.NilLSN, err
		}
		if err := m.appendNewBlock(); err != nil {
			return common.NilLSN, err
		}
		lastPos, start = 0, pairSize
	}

	pos := start
	for _, v := range values {
		n, err := m.writeValue(pos, v)
		if err != nil {
			return common.NilLSN, errors.Wrap(err, "write log value")
		}
		pos += n
	}

	// the record is within bounds, so the pointer writes cannot fail
	//nolint:gosec
	_ = m.logPage.SetInt(pos, int32(lastPos))
	_ = m.logPage.SetInt(pos+intSize, 0)
	//nolint:gosec
	_ = m.logPage.SetInt(lastPos+intSize, int32(pos))
	//nolint:gosec
	_ = m.logPage.SetInt(0, int32(pos))

	m.latestLSN = m.lsnOf(pos)

	return m.latestLSN, nil
}

// Flush makes every record up to lsn durable.
func (m *Manager) Flush(lsn common.LSN) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lsn <= m.lastSavedLSN {
		return nil
	}

	return m.flush()
}

// LastBlock returns the block records are currently appended to.
func (m *Manager) LastBlock() common.BlockID {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currentBlk
}

func (m *Manager) LatestLSN() common.LSN {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.latestLSN
}

// Iterator flushes the log and returns an iterator positioned after the
// newest record.
func (m *Manager) Iterator() (*Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flush(); err != nil {
		return nil, err
	}

	return newIterator(m.fm, m.currentBlk)
}
