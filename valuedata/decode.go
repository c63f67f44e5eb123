// Package valuedata decodes a "vk" cell into a DecodedValue, including
// reassembly of "db" (big-data) chunked values. It is the concrete
// ValueElementLoader that valuelist.List calls on demand.
package valuedata

import (
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	"github.com/regfkit/keyitem/internal/format"
)

// Kind mirrors the REG_* value types this subsystem decodes.
type Kind uint32

const (
	KindNone                     Kind = format.RegNone
	KindSZ                       Kind = format.RegSZ
	KindExpandSZ                 Kind = format.RegExpandSZ
	KindBinary                   Kind = format.RegBinary
	KindDWord                    Kind = format.RegDWord
	KindDWordBigEndian           Kind = format.RegDWordBigEndian
	KindLink                     Kind = format.RegLink
	KindMultiSZ                  Kind = format.RegMultiSZ
	KindResourceList             Kind = format.RegResourceList
	KindFullResourceDescriptor   Kind = format.RegFullResourceDescriptor
	KindResourceRequirementsList Kind = format.RegResourceRequirementsList
	KindQWord                    Kind = format.RegQWord
)

// DecodedValue is the owned, decoded form of one value-list element.
type DecodedValue struct {
	Name string
	Kind Kind

	// Raw holds the value's bytes exactly as stored on disk (after db
	// reassembly, if applicable). Typed accessors below interpret Raw
	// according to Kind; Raw is nil only for a zero-length value.
	Raw []byte
}

// Strings decodes Raw as one (SZ/ExpandSZ) or more (MultiSZ) NUL-terminated
// UTF-16LE strings. Returns an empty slice for non-string kinds.
func (v DecodedValue) Strings() []string {
	switch v.Kind {
	case KindSZ, KindExpandSZ:
		s := decodeUTF16LEZ(v.Raw)
		if s == "" {
			return nil
		}
		return []string{s}
	case KindMultiSZ:
		return splitMultiSZ(v.Raw)
	default:
		return nil
	}
}

// Uint32 decodes Raw as a 32-bit integer, respecting endianness per Kind.
// ok is false for any other kind or if Raw is too short.
func (v DecodedValue) Uint32() (val uint32, ok bool) {
	if len(v.Raw) < 4 {
		return 0, false
	}
	switch v.Kind {
	case KindDWord:
		return format.U32LEUnchecked(v.Raw, 0), true
	case KindDWordBigEndian:
		return format.U32BEUnchecked(v.Raw, 0), true
	default:
		return 0, false
	}
}

// Uint64 decodes Raw as a little-endian 64-bit integer (REG_QWORD).
func (v DecodedValue) Uint64() (val uint64, ok bool) {
	if v.Kind != KindQWord || len(v.Raw) < 8 {
		return 0, false
	}
	return format.U64LEUnchecked(v.Raw, 0), true
}

// cellResolver fetches a cell's payload given an hbins-relative offset; it
// is satisfied by cellstore.Store (and by any test fake implementing the
// same BinCellStore-shaped method).
type cellResolver interface {
	GetCellAtOffset(offset int64) ([]byte, error)
}

// Decode parses cellBytes (a "vk" cell payload) into a DecodedValue. store
// is consulted to resolve external (non-inline) data, including following
// a "db" cell's segment directory when the value exceeds one cell's worth
// of inline storage.
func Decode(store cellResolver, cellBytes []byte) (DecodedValue, error) {
	if err := format.CheckedSignature(cellBytes, format.VKSignature); err != nil {
		return DecodedValue{}, err
	}
	if len(cellBytes) < format.VKMinSize {
		return DecodedValue{}, fmt.Errorf("valuedata: payload %d bytes shorter than minimum %d: %w", len(cellBytes), format.VKMinSize, format.ErrTruncated)
	}

	nameLen, err := format.CheckedReadU16(cellBytes, format.VKNameLengthOff)
	if err != nil {
		return DecodedValue{}, err
	}
	flags, err := format.CheckedReadU16(cellBytes, format.VKFlagsOff)
	if err != nil {
		return DecodedValue{}, err
	}
	kind, err := format.CheckedReadU32(cellBytes, format.VKDataTypeOff)
	if err != nil {
		return DecodedValue{}, err
	}
	rawSize, err := format.CheckedReadU32(cellBytes, format.VKDataSizeOff)
	if err != nil {
		return DecodedValue{}, err
	}

	var name string
	if nameLen > 0 {
		nameBytes, err := format.CheckedSlice(cellBytes, format.VKNameOff, int(nameLen))
		if err != nil {
			return DecodedValue{}, fmt.Errorf("valuedata: name field (%d bytes): %w", nameLen, err)
		}
		name, err = decodeName(nameBytes, flags&format.VKFlagCompressedName != 0)
		if err != nil {
			return DecodedValue{}, fmt.Errorf("valuedata: decode name: %w", err)
		}
	}

	size := int(rawSize & format.VKDataSizeMask)
	inline := rawSize&format.VKDataSizeInlineBit != 0

	var raw []byte
	switch {
	case size == 0:
		raw = nil
	case inline:
		if size > format.VKInlineMaxLen {
			return DecodedValue{}, fmt.Errorf("valuedata: inline size %d exceeds %d: %w", size, format.VKInlineMaxLen, format.ErrBoundsCheck)
		}
		inlineBytes, err := format.CheckedSlice(cellBytes, format.VKDataOffsetOff, size)
		if err != nil {
			return DecodedValue{}, err
		}
		raw = append([]byte(nil), inlineBytes...)
	default:
		dataOff, err := format.CheckedReadU32(cellBytes, format.VKDataOffsetOff)
		if err != nil {
			return DecodedValue{}, err
		}
		raw, err = loadExternalData(store, int64(dataOff), size)
		if err != nil {
			return DecodedValue{}, fmt.Errorf("valuedata: external data: %w", err)
		}
	}

	return DecodedValue{Name: name, Kind: Kind(kind), Raw: raw}, nil
}

// loadExternalData fetches the value's data cell at offset, reassembling a
// "db" (big-data) directory if that's what's there, or returning a plain
// data cell's bytes (truncated to size) otherwise.
func loadExternalData(store cellResolver, offset int64, size int) ([]byte, error) {
	cell, err := store.GetCellAtOffset(offset)
	if err != nil {
		return nil, err
	}

	if len(cell) >= format.CellSigSize && string(cell[:2]) == format.DBSignature {
		return reassembleBigData(store, cell, size)
	}

	if len(cell) < size {
		return nil, fmt.Errorf("data cell at 0x%X: have %d bytes, need %d: %w", offset, len(cell), size, format.ErrBoundsCheck)
	}
	out := make([]byte, size)
	copy(out, cell[:size])
	return out, nil
}

// reassembleBigData reads a "db" cell's segment-offset directory and
// concatenates each segment's bytes, each up to DBChunkSize, until size
// bytes have been collected.
func reassembleBigData(store cellResolver, dbCell []byte, size int) ([]byte, error) {
	segCount, err := format.CheckedReadU16(dbCell, format.DBSegCountOff)
	if err != nil {
		return nil, err
	}
	segListOff, err := format.CheckedReadU32(dbCell, format.DBSegListOffOff)
	if err != nil {
		return nil, err
	}

	dirCell, err := store.GetCellAtOffset(int64(segListOff))
	if err != nil {
		return nil, fmt.Errorf("segment directory at 0x%X: %w", segListOff, err)
	}
	dir := append([]byte(nil), dirCell...)

	needed := int(segCount) * 4
	if len(dir) < needed {
		return nil, fmt.Errorf("segment directory: have %d bytes, need %d for %d segments: %w", len(dir), needed, segCount, format.ErrBoundsCheck)
	}

	out := make([]byte, 0, size)
	remaining := size
	for i := 0; i < int(segCount) && remaining > 0; i++ {
		segOff := format.U32LEUnchecked(dir, i*4)
		segCell, err := store.GetCellAtOffset(int64(segOff))
		if err != nil {
			return nil, fmt.Errorf("segment %d at 0x%X: %w", i, segOff, err)
		}
		want := remaining
		if want > format.DBChunkSize {
			want = format.DBChunkSize
		}
		if len(segCell) < want {
			return nil, fmt.Errorf("segment %d: have %d bytes, need %d: %w", i, len(segCell), want, format.ErrBoundsCheck)
		}
		out = append(out, segCell[:want]...)
		remaining -= want
	}
	if remaining > 0 {
		return nil, fmt.Errorf("big-data reassembly short by %d bytes: %w", remaining, format.ErrBoundsCheck)
	}
	return out, nil
}

// decodeName decodes a value's name bytes, preserving case. Compressed
// names are Windows-1252 (one byte per character); otherwise UTF-16LE,
// without the NUL-termination trimming applied to string value data.
func decodeName(raw []byte, compressed bool) (string, error) {
	if compressed {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("odd-length UTF-16LE name (%d bytes): %w", len(raw), format.ErrTruncated)
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = format.U16LEUnchecked(raw, i*2)
	}
	return string(utf16.Decode(units)), nil
}

func decodeUTF16LEZ(raw []byte) string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = format.U16LEUnchecked(raw, i*2)
	}
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}

func splitMultiSZ(raw []byte) []string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = format.U16LEUnchecked(raw, i*2)
	}
	var out []string
	start := 0
	for i, u := range units {
		if u == 0 {
			if i > start {
				out = append(out, string(utf16.Decode(units[start:i])))
			}
			start = i + 1
		}
	}
	if start < len(units) {
		out = append(out, string(utf16.Decode(units[start:])))
	}
	return out
}
