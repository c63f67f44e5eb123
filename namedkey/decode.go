// Package namedkey decodes an "nk" cell payload into a NamedKey record, the
// pure external decoder the keyitem aggregate loader delegates to.
package namedkey

import (
	"fmt"
	"time"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	"github.com/regfkit/keyitem/internal/format"
)

// NamedKey is the decoded, owned form of an "nk" cell. Name is always
// returned in its on-disk case; callers that need a hash for index lookups
// call Hash(Name) themselves.
type NamedKey struct {
	Name    string
	Flags   uint16
	Written time.Time

	ParentOffset int64

	NumberOfSubKeys   uint32
	SubKeysListOffset int64
	NumberOfValues    uint32
	ValuesListOffset  int64
	SecurityKeyOffset int64
	ClassNameOffset   int64
	ClassNameSize     uint16
}

// IsRoot reports whether the NK's root-key flag is set.
func (k NamedKey) IsRoot() bool { return k.Flags&format.NKFlagIsRoot != 0 }

// isCompressed reports whether the name bytes are Windows-1252 (so-called
// "compressed", one byte per character) rather than UTF-16LE.
func (k NamedKey) isCompressed() bool { return k.Flags&format.NKFlagCompressedName != 0 }

// Decode parses cellBytes (the payload of an "nk" cell, signature included)
// into a NamedKey. If expectedHash is non-zero, the decoded name's registry
// hash (see Hash) must match it or decode fails — this is how a caller that
// reached this cell via an "lh" subkey-list entry verifies the entry's
// stored hash actually belongs to the key it points at. Pass 0 to skip
// verification (e.g. decoding the hive's root key, or a cell reached via an
// "li"/"ri" entry that carries no hash).
func Decode(cellBytes []byte, expectedHash uint32) (NamedKey, error) {
	if err := format.CheckedSignature(cellBytes, format.NKSignature); err != nil {
		return NamedKey{}, err
	}
	if len(cellBytes) < format.NKMinSize {
		return NamedKey{}, fmt.Errorf("namedkey: payload %d bytes shorter than minimum %d: %w", len(cellBytes), format.NKMinSize, format.ErrTruncated)
	}

	flags, err := format.CheckedReadU16(cellBytes, format.NKFlagsOff)
	if err != nil {
		return NamedKey{}, err
	}
	ft, err := format.CheckedReadU64(cellBytes, format.NKTimestampOff)
	if err != nil {
		return NamedKey{}, err
	}
	nameLen, err := format.CheckedReadU16(cellBytes, format.NKNameLengthOff)
	if err != nil {
		return NamedKey{}, err
	}
	classLen, err := format.CheckedReadU16(cellBytes, format.NKClassLengthOff)
	if err != nil {
		return NamedKey{}, err
	}
	nameBytes, err := format.CheckedSlice(cellBytes, format.NKNameOff, int(nameLen))
	if err != nil {
		return NamedKey{}, fmt.Errorf("namedkey: name field (%d bytes): %w", nameLen, err)
	}

	k := NamedKey{Flags: flags, Written: format.FileTimeToUTC(ft)}

	name, err := decodeName(nameBytes, k.isCompressed())
	if err != nil {
		return NamedKey{}, fmt.Errorf("namedkey: decode name: %w", err)
	}
	if expectedHash != 0 {
		if got := Hash(name); got != expectedHash {
			return NamedKey{}, fmt.Errorf("namedkey: name hash mismatch for %q: got 0x%X want 0x%X: %w", name, got, expectedHash, format.ErrBadSignature)
		}
	}
	k.Name = name

	readU32 := func(off int) (uint32, error) { return format.CheckedReadU32(cellBytes, off) }

	parent, err := readU32(format.NKParentOff)
	if err != nil {
		return NamedKey{}, err
	}
	k.ParentOffset = int64(parent)

	k.NumberOfSubKeys, err = readU32(format.NKSubkeyCountOff)
	if err != nil {
		return NamedKey{}, err
	}
	subList, err := readU32(format.NKSubkeyListOff)
	if err != nil {
		return NamedKey{}, err
	}
	k.SubKeysListOffset = sentinelOffset(subList)

	k.NumberOfValues, err = readU32(format.NKValueCountOff)
	if err != nil {
		return NamedKey{}, err
	}
	valList, err := readU32(format.NKValueListOff)
	if err != nil {
		return NamedKey{}, err
	}
	k.ValuesListOffset = sentinelOffset(valList)

	sec, err := readU32(format.NKSecurityOff)
	if err != nil {
		return NamedKey{}, err
	}
	k.SecurityKeyOffset = absentOnlyAtMax(sec)

	cls, err := readU32(format.NKClassNameOff)
	if err != nil {
		return NamedKey{}, err
	}
	k.ClassNameOffset = absentOnlyAtMax(cls)
	k.ClassNameSize = classLen

	return k, nil
}

// sentinelOffset maps both REGF "absent" sentinels (0 and 0xFFFFFFFF) to
// format.NoOffset. Used for sub-keys-list and values-list offsets, where the
// original implementation treats both as "absent" (see
// libregf_key_item_read_sub_keys/read_values_list).
func sentinelOffset(v uint32) int64 {
	if v == 0 || v == 0xFFFFFFFF {
		return format.NoOffset
	}
	return int64(v)
}

// absentOnlyAtMax maps only the 0xFFFFFFFF sentinel to format.NoOffset,
// preserving 0 as a real, distinct offset. Used for class-name and
// security-key offsets,
// where the original implementation only treats 0xffffffff as "absent" —
// a 0 offset is a real offset to fetch (and, for the class name, a real
// offset that's only valid when class_name_size is also 0). See
// libregf_key_item_read_node_key's `!= 0xffffffff` guard around the
// security-key fetch and libregf_key_item_read_class_name's three-way
// split on offset 0xffffffff / offset 0 (&& size==0) / offset 0 (&&
// size>0, an error).
func absentOnlyAtMax(v uint32) int64 {
	if v == 0xFFFFFFFF {
		return format.NoOffset
	}
	return int64(v)
}

// decodeName decodes raw on-disk name bytes, preserving case. Compressed
// names are Windows-1252 (one byte per character); otherwise UTF-16LE.
func decodeName(raw []byte, compressed bool) (string, error) {
	if compressed {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	return decodeUTF16LE(raw)
}

func decodeUTF16LE(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("namedkey: odd-length UTF-16LE name (%d bytes): %w", len(raw), format.ErrTruncated)
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = format.U16LEUnchecked(raw, i*2)
	}
	return string(utf16.Decode(units)), nil
}
