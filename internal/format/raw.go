package format

import "github.com/regfkit/keyitem/internal/buf"

// The Unchecked readers assume the caller already knows the slice is large
// enough (e.g. reading a fixed base-block field after ParseBaseBlock has
// already confirmed the slice is format.BaseBlockSize long). Prefer the
// Checked variants when reading offsets that come from the hive file itself.

// U16LEUnchecked reads a little-endian uint16 without a bounds check.
func U16LEUnchecked(b []byte, off int) uint16 { return buf.U16LE(b, off) }

// U32LEUnchecked reads a little-endian uint32 without a bounds check.
func U32LEUnchecked(b []byte, off int) uint32 { return buf.U32LE(b, off) }

// U64LEUnchecked reads a little-endian uint64 without a bounds check.
func U64LEUnchecked(b []byte, off int) uint64 { return buf.U64LE(b, off) }

// U32BEUnchecked reads a big-endian uint32 without a bounds check.
func U32BEUnchecked(b []byte, off int) uint32 { return buf.U32BE(b, off) }

// PutU32 writes a little-endian uint32 at off. Used by tests to construct
// synthetic cell/hbin/base-block byte layouts.
func PutU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

// PutU16 writes a little-endian uint16 at off.
func PutU16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

// PutI32 writes a little-endian int32 at off.
func PutI32(b []byte, off int, v int32) {
	PutU32(b, off, uint32(v))
}
