package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildCellBytes(size int32, payload []byte) []byte {
	buf := make([]byte, CellSizeFieldSize+len(payload))
	PutI32(buf, 0, size)
	copy(buf[CellSizeFieldSize:], payload)
	return buf
}

func TestParseCell_Allocated(t *testing.T) {
	payload := []byte("nk-payload")
	data := buildCellBytes(-int32(CellSizeFieldSize+len(payload)), payload)

	c, err := ParseCell(data, 0)
	require.NoError(t, err)
	require.True(t, c.Allocated)
	require.Equal(t, CellSizeFieldSize+len(payload), c.Size)
	require.Equal(t, payload, c.Payload)
}

func TestParseCell_Free(t *testing.T) {
	payload := []byte("free-space-here")
	data := buildCellBytes(int32(CellSizeFieldSize+len(payload)), payload)

	c, err := ParseCell(data, 0)
	require.NoError(t, err)
	require.False(t, c.Allocated)
	require.Equal(t, payload, c.Payload)
}

func TestParseCell_SizeSmallerThanHeaderIsTruncated(t *testing.T) {
	data := buildCellBytes(-2, nil)
	_, err := ParseCell(data, 0)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestParseCell_PayloadBeyondBufferIsBoundsError(t *testing.T) {
	data := buildCellBytes(-40, []byte("short"))
	_, err := ParseCell(data, 0)
	require.ErrorIs(t, err, ErrBoundsCheck)
}

func TestParseCell_AtNonZeroOffset(t *testing.T) {
	payload := []byte("abcd")
	cell := buildCellBytes(-int32(CellSizeFieldSize+len(payload)), payload)
	data := append([]byte{0, 0, 0, 0}, cell...)

	c, err := ParseCell(data, 4)
	require.NoError(t, err)
	require.Equal(t, payload, c.Payload)
}
