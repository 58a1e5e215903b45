package disk

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/storage/page"
)

// Manager reads and writes fixed-size blocks of files under basePath.
type Manager struct {
	fs        afero.Fs
	basePath  string
	blockSize int

	files map[string]afero.File

	mu *sync.Mutex
}

func New(basePath string, fs afero.Fs, blockSize int) (*Manager, error) {
	if blockSize <= 0 {
		return nil, errors.Errorf("invalid block size %d", blockSize)
	}

	if err := fs.MkdirAll(basePath, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create base dir %s", basePath)
	}

	return &Manager{
		fs:        fs,
		basePath:  basePath,
		blockSize: blockSize,
		files:     make(map[string]afero.File),
		mu:        new(sync.Mutex),
	}, nil
}

func (m *Manager) BlockSize() int {
	return m.blockSize
}

func (m *Manager) getFile(fileName string) (afero.File, error) {
	if f, ok := m.files[fileName]; ok {
		return f, nil
	}

	path := filepath.Join(m.basePath, filepath.Clean(fileName))
	f, err := m.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	m.files[fileName] = f
	return f, nil
}

func (m *Manager) offset(blk common.BlockID) int64 {
	return int64(blk.Number) * int64(m.blockSize)
}

// Read fills pg with the contents of blk. Bytes past the end of the file
// read as zeroes.
func (m *Manager) Read(blk common.BlockID, pg *page.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.getFile(blk.FileName)
	if err != nil {
		return err
	}

	data := pg.GetData()
	n, err := f.ReadAt(data, m.offset(blk))
	// afero.MemMapFs reports a short read as io.ErrUnexpectedEOF
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(err, "read %s", blk)
	}
	clear(data[n:])

	return nil
}

func (m *Manager) Write(blk common.BlockID, pg *page.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.write(blk, pg)
}

func (m *Manager) write(blk common.BlockID, pg *page.Page) error {
	f, err := m.getFile(blk.FileName)
	if err != nil {
		return err
	}

	if _, err := f.WriteAt(pg.GetData(), m.offset(blk)); err != nil {
		return errors.Wrapf(err, "write %s", blk)
	}

	if err := f.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", blk.FileName)
	}

	return nil
}

// Size returns the number of blocks in fileName.
func (m *Manager) Size(fileName string) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.size(fileName)
}

func (m *Manager) size(fileName string) (int32, error) {
	f, err := m.getFile(fileName)
	if err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", fileName)
	}

	//nolint:gosec
	return int32(info.Size() / int64(m.blockSize)), nil
}

// Append grows fileName by one zeroed block.
func (m *Manager) Append(fileName string) (common.BlockID, error) {
	return m.AppendPage(fileName, page.New(m.blockSize))
}

// AppendPage grows fileName by one block holding the contents of pg.
func (m *Manager) AppendPage(fileName string, pg *page.Page) (common.BlockID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.size(fileName)
	if err != nil {
		return common.BlockID{}, err
	}

	blk := common.NewBlockID(fileName, n)
	if err := m.write(blk, pg); err != nil {
		return common.BlockID{}, err
	}

	return blk, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for name, f := range m.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", name)
		}
		delete(m.files, name)
	}

	return err
}
