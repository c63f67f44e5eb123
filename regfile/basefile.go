// Package regfile opens a REGF hive file read-only, validates its base
// block, and exposes the HBIN layout needed to translate a cell's
// relative-to-hbins-start offset into an absolute byte offset.
package regfile

import (
	"bytes"
	"fmt"

	"github.com/regfkit/keyitem/internal/format"
)

// BaseBlock is a zero-copy view over the first 4096 bytes of a hive file.
type BaseBlock struct {
	raw []byte
}

// ParseBaseBlock validates the "regf" signature and returns a view over the
// base block. It does not validate the checksum (nothing in this package
// does) or the size fields; call Validate for the size checks.
func ParseBaseBlock(data []byte) (*BaseBlock, error) {
	if len(data) < format.BaseBlockSize {
		return nil, fmt.Errorf("regfile: file too small for base block (%d bytes): %w", len(data), format.ErrTruncated)
	}
	raw := data[:format.BaseBlockSize]
	if !bytes.Equal(raw[:4], []byte(format.BaseBlockMagic)) {
		return nil, fmt.Errorf("regfile: %w", format.ErrBadMagic)
	}
	return &BaseBlock{raw: raw}, nil
}

// RootKeyOffset returns the hbins-relative offset of the root nk cell.
func (bb *BaseBlock) RootKeyOffset() uint32 {
	return format.U32LEUnchecked(bb.raw, format.BaseBlockRootKeyOff)
}

// DataSize returns the declared size, in bytes, of the HBIN area.
func (bb *BaseBlock) DataSize() uint32 {
	return format.U32LEUnchecked(bb.raw, format.BaseBlockHiveBinSz)
}

// Sequence1 and Sequence2 report the primary/secondary sequence numbers;
// equal values indicate a cleanly closed hive.
func (bb *BaseBlock) Sequence1() uint32 { return format.U32LEUnchecked(bb.raw, format.BaseBlockSeq1Off) }
func (bb *BaseBlock) Sequence2() uint32 { return format.U32LEUnchecked(bb.raw, format.BaseBlockSeq2Off) }

// IsClean reports whether the two sequence numbers match.
func (bb *BaseBlock) IsClean() bool { return bb.Sequence1() == bb.Sequence2() }

// Validate checks that the declared data size is bin-aligned and that the
// root key offset and hive length are consistent with the file's actual
// length. It does not read HBINs.
func (bb *BaseBlock) Validate(fileSize int) error {
	ds := bb.DataSize()
	if ds%format.HBINAlignment != 0 {
		return fmt.Errorf("regfile: data size 0x%X not bin-aligned", ds)
	}
	total := format.BaseBlockSize + int(ds)
	if total > fileSize {
		return fmt.Errorf("regfile: declared hive length (%d) exceeds file size (%d)", total, fileSize)
	}
	if int(bb.RootKeyOffset()) >= int(ds) {
		return fmt.Errorf("regfile: root key offset 0x%X beyond data area (0x%X)", bb.RootKeyOffset(), ds)
	}
	return nil
}
