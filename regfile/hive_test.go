package regfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regfkit/keyitem/internal/format"
)

// buildSyntheticHive constructs a minimal valid hive: a 4KiB base block
// followed by a single 4KiB hbin containing one allocated cell right after
// the hbin header, at hbins-relative offset 0x20.
func buildSyntheticHive(t *testing.T, rootOff uint32, cellPayload []byte) []byte {
	t.Helper()
	data := make([]byte, format.BaseBlockSize+format.HBINAlignment)

	copy(data[:4], format.BaseBlockMagic)
	format.PutU32(data, format.BaseBlockRootKeyOff, rootOff)
	format.PutU32(data, format.BaseBlockHiveBinSz, format.HBINAlignment)

	hbinAt := format.BaseBlockSize
	copy(data[hbinAt:hbinAt+4], format.HBINMagic)
	format.PutU32(data, hbinAt+format.HBINSizeOff, format.HBINAlignment)

	cellAt := hbinAt + format.HBINHeaderSize
	cellSize := int32(-(4 + len(cellPayload)))
	format.PutI32(data, cellAt, cellSize)
	copy(data[cellAt+4:], cellPayload)

	return data
}

func TestOpen_SyntheticHive_RoundTrip(t *testing.T) {
	payload := []byte("nk-payload-bytes")
	data := buildSyntheticHive(t, 0, payload)

	h, err := newFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, int64(0), h.RootOffset())

	got, err := h.CellPayload(format.HBINHeaderSize)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	data := buildSyntheticHive(t, 0, []byte("x"))
	data[0] = 'X'

	_, err := newFromBytes(data)
	require.ErrorIs(t, err, format.ErrBadMagic)
}

func TestOpen_RejectsRootBeyondDataArea(t *testing.T) {
	data := buildSyntheticHive(t, format.HBINAlignment+0x100, []byte("x"))
	_, err := newFromBytes(data)
	require.Error(t, err)
}

func TestCellPayload_UnmappedOffsetErrors(t *testing.T) {
	data := buildSyntheticHive(t, 0, []byte("x"))
	h, err := newFromBytes(data)
	require.NoError(t, err)

	_, err = h.CellPayload(format.HBINAlignment + 0x500)
	require.ErrorIs(t, err, format.ErrBoundsCheck)
}
