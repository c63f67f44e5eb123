package buf

import (
	"encoding/binary"
	"errors"
)

var errOutOfBounds = errors.New("buf: out of bounds")

// U16LE reads an unchecked little-endian uint16 at off. Callers must have
// already verified bounds with Has or Slice.
func U16LE(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// U32LE reads an unchecked little-endian uint32 at off.
func U32LE(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// U64LE reads an unchecked little-endian uint64 at off.
func U64LE(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// I32LE reads an unchecked little-endian int32 at off.
func I32LE(b []byte, off int) int32 {
	return int32(U32LE(b, off))
}

// U32BE reads an unchecked big-endian uint32 at off, used to decode
// REG_DWORD_BIG_ENDIAN value data.
func U32BE(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}
