package pool

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(64)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 64, bb.Cap())
	assert.Equal(t, 64, bb.Available())
}

func TestByteBuffer_Write(t *testing.T) {
	bb := NewByteBuffer(8)

	n, err := bb.Write([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = bb.Write([]byte("efgh"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("abcdefgh"), bb.Bytes())
	assert.Equal(t, 0, bb.Available())
}

func TestByteBuffer_Write_NeverGrows(t *testing.T) {
	bb := NewByteBuffer(4)
	first := &bb.B[:1][0]

	n, err := bb.Write([]byte("hello"))
	require.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("hell"), bb.Bytes())
	assert.Equal(t, 4, bb.Cap())
	assert.Same(t, first, &bb.B[0], "storage must not be reallocated")
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("data"))

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 16, bb.Cap())
}

func TestByteBuffer_SetLength(t *testing.T) {
	bb := NewByteBuffer(8)

	require.True(t, bb.SetLength(8))
	assert.Equal(t, 8, bb.Len())

	require.False(t, bb.SetLength(9))
	require.False(t, bb.SetLength(-1))
	assert.Equal(t, 8, bb.Len())

	require.True(t, bb.SetLength(0))
	require.True(t, bb.Extend(3))
	require.False(t, bb.Extend(6))
	assert.Equal(t, 3, bb.Len())
}

func TestByteBuffer_Zero(t *testing.T) {
	bb := NewByteBuffer(4)
	_, _ = bb.Write([]byte{1, 2, 3, 4})

	bb.Zero()

	assert.Equal(t, []byte{0, 0, 0, 0}, bb.Bytes())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("sensor"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)

	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "sensor", out.String())
}

func TestNewArena(t *testing.T) {
	arena := NewArena(4, 8)
	require.Len(t, arena, 4)

	for i := range arena {
		assert.Equal(t, 0, arena[i].Len())
		assert.Equal(t, 8, arena[i].Cap())
	}

	// Filling one slot must not touch its neighbour.
	_, err := arena[0].Write(bytes.Repeat([]byte{0xFF}, 8))
	require.NoError(t, err)
	_, err = arena[0].Write([]byte{0xEE})
	require.ErrorIs(t, err, io.ErrShortWrite)

	require.True(t, arena[1].SetLength(8))
	assert.Equal(t, make([]byte, 8), arena[1].Bytes())
}

func TestNewArena_Empty(t *testing.T) {
	assert.Nil(t, NewArena(0, 8))
}
