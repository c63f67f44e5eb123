package keyitem

import (
	"fmt"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/regfkit/keyitem/internal/format"
	"github.com/regfkit/keyitem/valuedata"
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

func buildNK(t *testing.T, name string, subKeysOff, valuesOff, secOff, classOff int64, numSub, numVal uint32, classLen uint16) []byte {
	t.Helper()
	nameBytes := []byte(name)
	buf := make([]byte, format.NKNameOff+len(nameBytes))
	copy(buf[:2], format.NKSignature)
	format.PutU16(buf, format.NKFlagsOff, format.NKFlagCompressedName)
	format.PutU32(buf, format.NKSubkeyCountOff, numSub)
	format.PutU32(buf, format.NKSubkeyListOff, u32sentinel(subKeysOff))
	format.PutU32(buf, format.NKValueCountOff, numVal)
	format.PutU32(buf, format.NKValueListOff, u32sentinel(valuesOff))
	format.PutU32(buf, format.NKSecurityOff, u32sentinel(secOff))
	format.PutU32(buf, format.NKClassNameOff, u32sentinel(classOff))
	format.PutU16(buf, format.NKClassLengthOff, classLen)
	format.PutU16(buf, format.NKNameLengthOff, uint16(len(nameBytes)))
	copy(buf[format.NKNameOff:], nameBytes)
	return buf
}

func u32sentinel(off int64) uint32 {
	if off == -1 {
		return 0xFFFFFFFF
	}
	return uint32(off)
}

func buildSK(refCount uint32, descriptor []byte) []byte {
	buf := make([]byte, format.SKDescOff+len(descriptor))
	copy(buf[:2], format.SKSignature)
	format.PutU32(buf, format.SKRefCountOff, refCount)
	format.PutU32(buf, format.SKDescSizeOff, uint32(len(descriptor)))
	copy(buf[format.SKDescOff:], descriptor)
	return buf
}

func buildClassNameCell(name string) []byte {
	units := utf16.Encode([]rune(name))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		format.PutU16(buf, i*2, u)
	}
	return buf
}

func buildValueListCell(offsets ...uint32) []byte {
	buf := make([]byte, len(offsets)*4)
	for i, o := range offsets {
		format.PutU32(buf, i*4, o)
	}
	return buf
}

func buildVK(t *testing.T, name string, dataSize uint32, dataOffsetOrInline uint32) []byte {
	t.Helper()
	buf := make([]byte, format.VKNameOff+len(name))
	copy(buf[:2], format.VKSignature)
	format.PutU16(buf, format.VKNameLengthOff, uint16(len(name)))
	format.PutU32(buf, format.VKDataSizeOff, dataSize)
	format.PutU32(buf, format.VKDataOffsetOff, dataOffsetOrInline)
	format.PutU32(buf, format.VKDataTypeOff, uint32(format.RegDWord))
	format.PutU16(buf, format.VKFlagsOff, format.VKFlagCompressedName)
	copy(buf[format.VKNameOff:], name)
	return buf
}

func TestLoad_MinimalKeyNoChildren(t *testing.T) {
	nk := buildNK(t, "Simple", -1, -1, -1, -1, 0, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.Equal(t, "Simple", item.Named.Name)
	require.Nil(t, item.ClassName)
	require.Nil(t, item.Security)
	require.False(t, item.Flags.Corrupted())
	require.Equal(t, int64(-1), item.SubKeysListOffset)
	require.Equal(t, 0, item.Values.Count())
}

func TestLoad_WithClassNameAndSecurity(t *testing.T) {
	classBytes := buildClassNameCell("MyClass")
	secBytes := buildSK(2, []byte("descriptor"))
	nk := buildNK(t, "WithExtras", -1, -1, 0x500, 0x400, 0, 0, uint16(len(classBytes)))

	store := &fakeStore{
		cells: map[int64][]byte{0x10: nk, 0x400: classBytes, 0x500: secBytes},
		known: map[int64]bool{},
	}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.Equal(t, classBytes, item.ClassName)
	require.NotNil(t, item.Security)
	require.Equal(t, uint32(2), item.Security.RefCount)
}

func TestLoad_InvalidSubKeysOffsetMarksCorruptedWithZeroChildren(t *testing.T) {
	nk := buildNK(t, "HasBadSubkeys", 0x999, -1, -1, -1, 3, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.True(t, item.Flags.Corrupted())
	require.Equal(t, int64(-1), item.SubKeysListOffset)
}

func TestLoad_ValidSubKeysOffsetInstallsRange(t *testing.T) {
	nk := buildNK(t, "HasSubkeys", 0x800, -1, -1, -1, 1, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{0x800: true}}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.False(t, item.Flags.Corrupted())
	require.Equal(t, int64(0x800), item.SubKeysListOffset)
}

func TestLoad_ValuesListLoadedAndDecodedOnDemand(t *testing.T) {
	vk := buildVK(t, "Count", format.VKDataSizeInlineBit|4, 7)
	valueList := buildValueListCell(0x700)
	nk := buildNK(t, "HasValues", -1, 0x600, -1, -1, 0, 1, 0)

	store := &fakeStore{
		cells: map[int64][]byte{0x10: nk, 0x600: valueList, 0x700: vk},
		known: map[int64]bool{0x600: true, 0x700: true},
	}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, item.Values.Count())

	v, err := item.Values.Get(store, 0)
	require.NoError(t, err)
	dv := v.(valuedata.DecodedValue)
	require.Equal(t, "Count", dv.Name)
	n, ok := dv.Uint32()
	require.True(t, ok)
	require.Equal(t, uint32(7), n)
}

func TestLoad_ZeroValuesLeavesListEmptyRegardlessOfOffset(t *testing.T) {
	nk := buildNK(t, "NoValuesDespiteOffset", -1, 0xDEAD, -1, -1, 0, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.Equal(t, 0, item.Values.Count())
	require.False(t, item.Flags.Corrupted())
}

func TestLoad_NameHashMismatchFails(t *testing.T) {
	nk := buildNK(t, "Software", -1, -1, -1, -1, 0, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	_, err := Load(store, 0x10, 0xDEADBEEF)
	require.Error(t, err)
}

func TestLoad_InvalidSecurityOffsetIsFatal(t *testing.T) {
	nk := buildNK(t, "BadSec", -1, -1, 0x999, -1, 0, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	_, err := Load(store, 0x10, 0)
	require.Error(t, err)
}

// TestLoad_ClassNameOffsetZeroWithNonzeroSizeFails covers property 10 /
// boundary B10: class_name_offset == 0 is only valid when class_name_size
// is also 0 (libregf_key_item_read_class_name). A 0 offset with a nonzero
// size must fail, not be silently treated as "no class name".
func TestLoad_ClassNameOffsetZeroWithNonzeroSizeFails(t *testing.T) {
	nk := buildNK(t, "BadClassName", -1, -1, -1, 0, 0, 0, 7)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	_, err := Load(store, 0x10, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, format.ErrBoundsCheck)
}

// TestLoad_SecurityOffsetZeroIsFetched covers the security-offset half of
// the same fix: unlike sub-keys/values-list offsets, 0 is not the security
// sentinel (only 0xFFFFFFFF is), so a 0 security offset must be fetched
// rather than treated as "no security descriptor".
func TestLoad_SecurityOffsetZeroIsFetched(t *testing.T) {
	secBytes := buildSK(1, []byte("d"))
	nk := buildNK(t, "SecAtZero", -1, -1, 0, -1, 0, 0, 0)
	store := &fakeStore{
		cells: map[int64][]byte{0x10: nk, 0: secBytes},
		known: map[int64]bool{},
	}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.NotNil(t, item.Security)
	require.Equal(t, uint32(1), item.Security.RefCount)
}

func TestKeyItem_NamedKeyFlags(t *testing.T) {
	nk := buildNK(t, "Flagged", -1, -1, -1, -1, 0, 0, 0)
	store := &fakeStore{cells: map[int64][]byte{0x10: nk}, known: map[int64]bool{}}

	item, err := Load(store, 0x10, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(format.NKFlagCompressedName), item.NamedKeyFlags())
}
