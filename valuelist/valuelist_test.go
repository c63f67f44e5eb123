package valuelist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regfkit/keyitem/internal/format"
)

type fakeStore struct {
	cells map[int64][]byte
	known map[int64]bool
}

func (f *fakeStore) GetCellAtOffset(offset int64) ([]byte, error) {
	c, ok := f.cells[offset]
	if !ok {
		return nil, fmt.Errorf("no cell at 0x%X", offset)
	}
	return c, nil
}

func (f *fakeStore) GetIndexAtOffset(offset int64) int {
	if f.known[offset] {
		return 1
	}
	return 0
}

func buildValueListCell(offsets ...uint32) []byte {
	buf := make([]byte, len(offsets)*4)
	for i, o := range offsets {
		format.PutU32(buf, i*4, o)
	}
	return buf
}

func countingLoader() (*int, ElementLoader) {
	calls := 0
	return &calls, ElementLoaderFunc(func(store BinCellStore, offset int64) (any, error) {
		calls++
		return fmt.Sprintf("value@0x%X", offset), nil
	})
}

func TestLoadElements_AllValid(t *testing.T) {
	calls, loader := countingLoader()
	_ = calls
	l := New(loader, 10)

	listCell := buildValueListCell(0x100, 0x200, 0x300)
	store := &fakeStore{
		cells: map[int64][]byte{0x50: listCell},
		known: map[int64]bool{0x100: true, 0x200: true, 0x300: true},
	}

	corrupted, err := l.LoadElements(store, 0x50, 3)
	require.NoError(t, err)
	require.False(t, corrupted)
	require.Equal(t, 3, l.Count())
}

func TestLoadElements_SkipsUnknownOffsetAndMarksCorrupted(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 10)

	listCell := buildValueListCell(0x100, 0xDEADBEEF, 0x300)
	store := &fakeStore{
		cells: map[int64][]byte{0x50: listCell},
		known: map[int64]bool{0x100: true, 0x300: true},
	}

	corrupted, err := l.LoadElements(store, 0x50, 3)
	require.NoError(t, err)
	require.True(t, corrupted)
	require.Equal(t, 2, l.Count())
}

func TestLoadElements_ZeroCountIsNoop(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 10)
	store := &fakeStore{cells: map[int64][]byte{}, known: map[int64]bool{}}

	corrupted, err := l.LoadElements(store, -1, 0)
	require.NoError(t, err)
	require.False(t, corrupted)
	require.Equal(t, 0, l.Count())
}

func TestLoadElements_AbsentOffsetWithNonzeroCountErrors(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 10)
	store := &fakeStore{cells: map[int64][]byte{}, known: map[int64]bool{}}

	_, err := l.LoadElements(store, -1, 2)
	require.Error(t, err)
}

func TestGet_CachesDecodedValue(t *testing.T) {
	calls, loader := countingLoader()
	l := New(loader, 10)
	listCell := buildValueListCell(0x100)
	store := &fakeStore{cells: map[int64][]byte{0x50: listCell}, known: map[int64]bool{0x100: true}}

	_, err := l.LoadElements(store, 0x50, 1)
	require.NoError(t, err)

	v1, err := l.Get(store, 0)
	require.NoError(t, err)
	v2, err := l.Get(store, 0)
	require.NoError(t, err)

	require.Equal(t, v1, v2)
	require.Equal(t, 1, *calls)
}

func TestGet_EvictThenReloadReturnsEqualValue(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 10)
	listCell := buildValueListCell(0x100)
	store := &fakeStore{cells: map[int64][]byte{0x50: listCell}, known: map[int64]bool{0x100: true}}

	_, err := l.LoadElements(store, 0x50, 1)
	require.NoError(t, err)

	v1, err := l.Get(store, 0)
	require.NoError(t, err)

	l.Evict()
	require.Equal(t, 0, l.CacheLen())

	v2, err := l.Get(store, 0)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestGet_LRUEvictsOldestEntry(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 2)
	listCell := buildValueListCell(0x100, 0x200, 0x300)
	store := &fakeStore{
		cells: map[int64][]byte{0x50: listCell},
		known: map[int64]bool{0x100: true, 0x200: true, 0x300: true},
	}
	_, err := l.LoadElements(store, 0x50, 3)
	require.NoError(t, err)

	_, err = l.Get(store, 0)
	require.NoError(t, err)
	_, err = l.Get(store, 1)
	require.NoError(t, err)
	_, err = l.Get(store, 2) // evicts index 0, the LRU entry
	require.NoError(t, err)

	require.Equal(t, 2, l.CacheLen())
	_, ok := l.cache[0]
	require.False(t, ok)
}

func TestGet_IndexOutOfRange(t *testing.T) {
	_, loader := countingLoader()
	l := New(loader, 2)
	_, err := l.Get(&fakeStore{}, 0)
	require.Error(t, err)
}
