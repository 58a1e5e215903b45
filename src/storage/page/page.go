package page

import (
	"encoding/binary"
	"errors"

	"github.com/Blackdeer1524/StorageCore/src/pkg/assert"
)

const (
	DefaultSize = 4096
	IntSize     = 4
)

var ErrOutOfBounds = errors.New("write is out of page bounds")

// Page is the in-memory image of one block. Integers are big-endian int32,
// strings are an int32 length prefix followed by raw bytes.
type Page struct {
	data []byte
}

func New(size int) *Page {
	assert.Assert(size > 0, "page size must be positive, got %d", size)
	return &Page{data: make([]byte, size)}
}

// FromBytes wraps b without copying it.
func FromBytes(b []byte) *Page {
	return &Page{data: b}
}

// MaxLength is the number of bytes a string of strlen bytes occupies.
func MaxLength(strlen int) int {
	return IntSize + strlen
}

func (p *Page) Size() int {
	return len(p.data)
}

func (p *Page) GetData() []byte {
	return p.data
}

func (p *Page) SetData(d []byte) {
	assert.Assert(len(d) <= len(p.data), "data of %d bytes exceeds page size %d", len(d), len(p.data))
	n := copy(p.data, d)
	clear(p.data[n:])
}

func (p *Page) Clear() {
	clear(p.data)
}

func (p *Page) fits(offset, n int) bool {
	return offset >= 0 && n >= 0 && offset+n <= len(p.data)
}

func (p *Page) GetInt(offset int) int32 {
	assert.Assert(p.fits(offset, IntSize), "int read at %d is out of bounds", offset)
	//nolint:gosec
	return int32(binary.BigEndian.Uint32(p.data[offset:]))
}

func (p *Page) SetInt(offset int, val int32) error {
	if !p.fits(offset, IntSize) {
		return ErrOutOfBounds
	}
	//nolint:gosec
	binary.BigEndian.PutUint32(p.data[offset:], uint32(val))
	return nil
}

func (p *Page) GetBytes(offset int) []byte {
	n := int(p.GetInt(offset))
	assert.Assert(p.fits(offset+IntSize, n), "blob at %d of length %d is out of bounds", offset, n)
	res := make([]byte, n)
	copy(res, p.data[offset+IntSize:])
	return res
}

func (p *Page) SetBytes(offset int, b []byte) error {
	if !p.fits(offset, MaxLength(len(b))) {
		return ErrOutOfBounds
	}
	//nolint:gosec
	binary.BigEndian.PutUint32(p.data[offset:], uint32(len(b)))
	copy(p.data[offset+IntSize:], b)
	return nil
}

func (p *Page) GetString(offset int) string {
	return string(p.GetBytes(offset))
}

func (p *Page) SetString(offset int, s string) error {
	return p.SetBytes(offset, []byte(s))
}
