package namedkey

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/regfkit/keyitem/internal/format"
)

func buildNK(t *testing.T, name string, compressed bool, flags uint16) []byte {
	t.Helper()
	var nameBytes []byte
	if compressed {
		nameBytes = []byte(name)
		flags |= format.NKFlagCompressedName
	} else {
		units := utf16.Encode([]rune(name))
		nameBytes = make([]byte, len(units)*2)
		for i, u := range units {
			format.PutU16(nameBytes, i*2, u)
		}
	}

	size := format.NKNameOff + len(nameBytes)
	buf := make([]byte, size)
	copy(buf[:2], format.NKSignature)
	format.PutU16(buf, format.NKFlagsOff, flags)
	format.PutU32(buf, format.NKParentOff, 0x20)
	format.PutU32(buf, format.NKSubkeyCountOff, 2)
	format.PutU32(buf, format.NKSubkeyListOff, 0x40)
	format.PutU32(buf, format.NKValueCountOff, 0)
	format.PutU32(buf, format.NKValueListOff, 0xFFFFFFFF)
	format.PutU32(buf, format.NKSecurityOff, 0xFFFFFFFF)
	format.PutU32(buf, format.NKClassNameOff, 0xFFFFFFFF)
	format.PutU16(buf, format.NKNameLengthOff, uint16(len(nameBytes)))
	copy(buf[format.NKNameOff:], nameBytes)
	return buf
}

func TestDecode_CompressedName(t *testing.T) {
	payload := buildNK(t, "Software", true, 0)
	nk, err := Decode(payload, 0)
	require.NoError(t, err)
	require.Equal(t, "Software", nk.Name)
	require.Equal(t, int64(-1), nk.ValuesListOffset)
	require.Equal(t, int64(-1), nk.SecurityKeyOffset)
	require.Equal(t, int64(0x40), nk.SubKeysListOffset)
	require.Equal(t, uint32(2), nk.NumberOfSubKeys)
}

func TestDecode_UTF16Name(t *testing.T) {
	payload := buildNK(t, "Classes", false, 0)
	nk, err := Decode(payload, 0)
	require.NoError(t, err)
	require.Equal(t, "Classes", nk.Name)
}

func TestDecode_HashVerificationFailure(t *testing.T) {
	payload := buildNK(t, "Software", true, 0)
	_, err := Decode(payload, 0xDEADBEEF)
	require.Error(t, err)
}

func TestDecode_HashVerificationSuccess(t *testing.T) {
	payload := buildNK(t, "Software", true, 0)
	want := Hash("Software")
	nk, err := Decode(payload, want)
	require.NoError(t, err)
	require.Equal(t, "Software", nk.Name)
}

func TestDecode_BadSignature(t *testing.T) {
	payload := buildNK(t, "x", true, 0)
	payload[0] = 'z'
	_, err := Decode(payload, 0)
	require.ErrorIs(t, err, format.ErrBadSignature)
}

func TestHash_CaseInsensitive(t *testing.T) {
	require.Equal(t, Hash("SOFTWARE"), Hash("software"))
}

// TestDecode_ClassNameAndSecurityOffsetZeroArePreserved covers the
// non-uniform sentinel rule: unlike sub-keys-list/values-list offsets,
// class-name and security-key offsets treat only 0xFFFFFFFF as absent — a
// raw 0 must survive Decode as 0, not collapse to the -1 sentinel.
func TestDecode_ClassNameAndSecurityOffsetZeroArePreserved(t *testing.T) {
	payload := buildNK(t, "ZeroOffsets", true, 0)
	format.PutU32(payload, format.NKSecurityOff, 0)
	format.PutU32(payload, format.NKClassNameOff, 0)

	nk, err := Decode(payload, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), nk.SecurityKeyOffset)
	require.Equal(t, int64(0), nk.ClassNameOffset)
}

func TestNamedKey_IsRoot(t *testing.T) {
	payload := buildNK(t, "Root", true, format.NKFlagIsRoot)
	nk, err := Decode(payload, 0)
	require.NoError(t, err)
	require.True(t, nk.IsRoot())

	payload = buildNK(t, "NotRoot", true, 0)
	nk, err = Decode(payload, 0)
	require.NoError(t, err)
	require.False(t, nk.IsRoot())
}
