// Package cellstore implements the read-only, borrow-semantics cell store
// that the keyitem and subkeysindex packages load cells through.
package cellstore

import (
	"fmt"

	"github.com/regfkit/keyitem/internal/format"
	"github.com/regfkit/keyitem/regfile"
)

// Store is the production BinCellStore: it reads cell payloads from a
// memory-mapped hive file, copying each one into a single reusable buffer
// before returning it. The copy-into-reusable-buffer strategy is
// deliberate, not an optimization shortcut: it makes the "borrowed until
// the next GetCellAtOffset call" contract a real, observable property of
// this store rather than a documentation-only
// promise that happens to hold because the backing mmap never moves.
// Callers that need two cells' bytes alive at once must copy the first one
// out before fetching the second — exactly the discipline the aggregate
// loaders in keyitem and subkeysindex are built around.
type Store struct {
	hive *regfile.Hive
	buf  []byte
}

// Open opens the hive at path and returns a Store over it.
func Open(path string) (*Store, error) {
	h, err := regfile.Open(path)
	if err != nil {
		return nil, err
	}
	return New(h), nil
}

// New wraps an already-open hive in a Store. The Store does not take
// ownership of closing h.
func New(h *regfile.Hive) *Store {
	return &Store{hive: h}
}

// Close releases the underlying hive mapping.
func (s *Store) Close() error {
	return s.hive.Close()
}

// RootOffset returns the hbins-relative offset of the root nk cell.
func (s *Store) RootOffset() int64 { return s.hive.RootOffset() }

// GetCellAtOffset returns the payload bytes of the cell at the given
// hbins-relative offset, copied into the store's single reusable buffer.
// The returned slice is invalidated by the next call to GetCellAtOffset on
// this Store. GetIndexAtOffset never disturbs it.
func (s *Store) GetCellAtOffset(offset int64) ([]byte, error) {
	if offset < 0 {
		return nil, fmt.Errorf("cellstore: negative offset %d: %w", offset, format.ErrBoundsCheck)
	}
	payload, err := s.hive.CellPayload(offset)
	if err != nil {
		return nil, err
	}
	s.buf = append(s.buf[:0], payload...)
	return s.buf, nil
}

// GetIndexAtOffset reports whether offset resolves to a valid cell without
// disturbing the reusable buffer backing the last GetCellAtOffset result:
// it returns 1 if offset is a well-formed, in-bounds cell, 0 otherwise. The
// keyitem, subkeysindex, and valuelist packages use this to probe a
// child/sibling offset before deciding whether to recurse into it or mark
// the parent CORRUPTED.
func (s *Store) GetIndexAtOffset(offset int64) int {
	if offset < 0 {
		return 0
	}
	if _, err := s.hive.CellPayload(offset); err != nil {
		return 0
	}
	return 1
}
