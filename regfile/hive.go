package regfile

import (
	"fmt"
	"os"

	"github.com/regfkit/keyitem/internal/format"
)

// Hive is a read-only, memory-mapped view over a REGF hive file. It owns no
// decoded state beyond the base block and the hbin range table; everything
// else (cell payloads, NK/VK/SK decode) is the responsibility of the
// cellstore and decoder packages layered on top.
type Hive struct {
	data []byte // whole-file view (mmap'd or read into memory)
	base *BaseBlock
	bins binTable

	closer func() error
}

// Open maps path read-only and validates its REGF base block and HBIN
// layout. The returned Hive must be closed with Close.
func Open(path string) (*Hive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() < format.BaseBlockSize {
		return nil, fmt.Errorf("regfile: %s too small to be a hive (%d bytes)", path, st.Size())
	}

	data, closer, err := mapReadOnly(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("regfile: map %s: %w", path, err)
	}

	h, err := newFromBytes(data)
	if err != nil {
		_ = closer()
		return nil, err
	}
	h.closer = closer
	return h, nil
}

// NewFromBytes builds a Hive directly from an in-memory buffer that the
// caller already owns (e.g. a buffer read from an embedded resource, or a
// synthetic hive assembled in a test). The returned Hive's Close is a no-op;
// the caller keeps ownership of data's lifetime.
func NewFromBytes(data []byte) (*Hive, error) {
	return newFromBytes(data)
}

// newFromBytes builds a Hive directly from an in-memory buffer, used by both
// Open (after mmap) and tests (with a synthetic byte slice).
func newFromBytes(data []byte) (*Hive, error) {
	bb, err := ParseBaseBlock(data)
	if err != nil {
		return nil, err
	}
	if err := bb.Validate(len(data)); err != nil {
		return nil, err
	}
	hbinsData := data[format.BaseBlockSize:]
	bins, err := newBinTable(hbinsData)
	if err != nil {
		return nil, fmt.Errorf("regfile: hbin layout: %w", err)
	}
	return &Hive{data: data, base: bb, bins: bins}, nil
}

// Close releases the underlying mapping.
func (h *Hive) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// Base returns the hive's base block view.
func (h *Hive) Base() *BaseBlock { return h.base }

// RootOffset returns the hbins-relative offset of the root nk cell.
func (h *Hive) RootOffset() int64 { return int64(h.base.RootKeyOffset()) }

// CellPayload returns the zero-copy payload bytes (excluding the 4-byte size
// field) of the cell at hbins-relative offset off. The returned slice is
// borrowed: it aliases the hive's backing
// storage and is valid for the lifetime of the Hive, but callers working
// through cellstore's BinCellStore contract must still treat it as
// borrowed-until-next-call, since cellstore layers its own eviction
// bookkeeping on top regardless of the backing storage's actual lifetime.
func (h *Hive) CellPayload(off int64) ([]byte, error) {
	if off < 0 || off > int64(^uint32(0)) {
		return nil, fmt.Errorf("regfile: cell offset 0x%X out of range: %w", off, format.ErrBoundsCheck)
	}
	payload, relIdx, ok := h.bins.find(uint32(off))
	if !ok {
		return nil, fmt.Errorf("regfile: cell offset 0x%X not covered by any hbin: %w", off, format.ErrBoundsCheck)
	}
	cell, err := format.ParseCell(payload, relIdx)
	if err != nil {
		return nil, err
	}
	return cell.Payload, nil
}
