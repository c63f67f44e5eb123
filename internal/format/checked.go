package format

import (
	"fmt"

	"github.com/regfkit/keyitem/internal/buf"
)

// CheckedReadU16 reads a little-endian uint16 at off, verifying that the
// read stays within b.
func CheckedReadU16(b []byte, off int) (uint16, error) {
	s, ok := buf.Slice(b, off, 2)
	if !ok {
		return 0, fmt.Errorf("u16 at 0x%X: %w", off, ErrBoundsCheck)
	}
	return buf.U16LE(s, 0), nil
}

// CheckedReadU32 reads a little-endian uint32 at off, verifying bounds.
func CheckedReadU32(b []byte, off int) (uint32, error) {
	s, ok := buf.Slice(b, off, 4)
	if !ok {
		return 0, fmt.Errorf("u32 at 0x%X: %w", off, ErrBoundsCheck)
	}
	return buf.U32LE(s, 0), nil
}

// CheckedReadU64 reads a little-endian uint64 at off, verifying bounds.
func CheckedReadU64(b []byte, off int) (uint64, error) {
	s, ok := buf.Slice(b, off, 8)
	if !ok {
		return 0, fmt.Errorf("u64 at 0x%X: %w", off, ErrBoundsCheck)
	}
	return buf.U64LE(s, 0), nil
}

// CheckedReadI32 reads a little-endian int32 at off, verifying bounds. Used
// for the cell-size header, which is signed (negative = allocated).
func CheckedReadI32(b []byte, off int) (int32, error) {
	v, err := CheckedReadU32(b, off)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// CheckedSlice returns b[off:off+n], or ErrBoundsCheck if it doesn't fit.
func CheckedSlice(b []byte, off, n int) ([]byte, error) {
	s, ok := buf.Slice(b, off, n)
	if !ok {
		return nil, fmt.Errorf("slice [0x%X:+%d] of %d: %w", off, n, len(b), ErrBoundsCheck)
	}
	return s, nil
}

// CheckedSignature reads a 2-byte cell signature at offset 0 and compares it
// against want, returning ErrBadSignature on mismatch.
func CheckedSignature(b []byte, want string) error {
	s, err := CheckedSlice(b, 0, CellSigSize)
	if err != nil {
		return err
	}
	if string(s) != want {
		return fmt.Errorf("got %q want %q: %w", s, want, ErrBadSignature)
	}
	return nil
}
