package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRoundTrip(t *testing.T) {
	p := New(64)

	require.NoError(t, p.SetInt(0, -7))
	require.NoError(t, p.SetInt(60, 1<<30))

	assert.Equal(t, int32(-7), p.GetInt(0))
	assert.Equal(t, int32(1<<30), p.GetInt(60))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xf9}, p.GetData()[:4])
}

func TestStringLayout(t *testing.T) {
	p := New(32)

	require.NoError(t, p.SetString(8, "Hello"))
	assert.Equal(t, "Hello", p.GetString(8))
	assert.Equal(t, int32(5), p.GetInt(8))
	assert.Equal(t, 9, MaxLength(5))

	require.NoError(t, p.SetString(8, ""))
	assert.Equal(t, "", p.GetString(8))
}

func TestOutOfBounds(t *testing.T) {
	p := New(16)

	assert.ErrorIs(t, p.SetInt(13, 1), ErrOutOfBounds)
	assert.ErrorIs(t, p.SetInt(-1, 1), ErrOutOfBounds)
	assert.ErrorIs(t, p.SetString(8, "12345"), ErrOutOfBounds)
	assert.NoError(t, p.SetString(8, "1234"))

	assert.Panics(t, func() { p.GetInt(14) })
}

func TestSetDataPadsWithZeroes(t *testing.T) {
	p := New(8)
	require.NoError(t, p.SetInt(4, 99))

	p.SetData([]byte{1, 2})

	assert.Equal(t, []byte{1, 2, 0, 0, 0, 0, 0, 0}, p.GetData())
	assert.Panics(t, func() { p.SetData(make([]byte, 9)) })
}
