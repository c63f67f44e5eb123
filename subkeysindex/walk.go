// Package subkeysindex walks a key's sub-keys index — a chain of lf/lh/li
// cells, possibly behind one or more levels of ri (indirection) cells —
// appending one descriptor per leaf-level (named-key) entry it finds.
package subkeysindex

import (
	"errors"
	"fmt"

	"github.com/regfkit/keyitem/internal/buf"
	"github.com/regfkit/keyitem/internal/format"
)

// Status is the tri-state result of a Walk: a fully clean traversal, one
// that completed but dropped at least one unresolvable offset, or a
// structural failure that aborted the whole traversal.
type Status int

const (
	StatusOK Status = iota
	StatusPartial
	StatusErr
)

// BinCellStore is the subset of the shared cell store a walk needs.
type BinCellStore interface {
	GetCellAtOffset(offset int64) ([]byte, error)
	// GetIndexAtOffset reports whether offset is covered by a known bin:
	// 1 known, 0 unknown, -1 on an internal error while probing.
	GetIndexAtOffset(offset int64) int
}

// Entry is one leaf-level sub-key descriptor: the offset of its nk cell and
// the name-hash carried alongside it in an lf/lh list (0 for li elements,
// which carry no hash).
type Entry struct {
	Offset int64
	Hash   uint32
}

// Sink accumulates Entry values as Walk discovers them. subkeysindex never
// allocates its own result slice so callers can reuse one across sibling
// walks.
type Sink interface {
	Append(Entry)
}

// SliceSink is a Sink backed by a plain slice.
type SliceSink []Entry

func (s *SliceSink) Append(e Entry) { *s = append(*s, e) }

// MaxRecursionDepth bounds ri-chain recursion. Not part of the externally
// observable contract; purely a guard against adversarial or cyclic offset
// graphs.
const MaxRecursionDepth = format.MaxRecursionDepth

var errMaxDepthExceeded = errors.New("subkeysindex: max recursion depth exceeded")

// Walk reads the sub-keys index cell at listOffset and appends one Entry
// per leaf-level (named-key) element to sink, recursing through any ri
// (indirect) cells it encounters.
func Walk(store BinCellStore, listOffset int64, sink Sink) Status {
	_, status := walk(store, listOffset, sink, 0)
	return status
}

func walk(store BinCellStore, listOffset int64, sink Sink, depth int) (error, Status) {
	if depth > MaxRecursionDepth {
		return errMaxDepthExceeded, StatusErr
	}

	// Step 1: copy the cell payload immediately. Recursing into a nested
	// ri cell, or probing further offsets, may invalidate this payload on
	// the shared store.
	raw, err := store.GetCellAtOffset(listOffset)
	if err != nil {
		return fmt.Errorf("subkeysindex: fetch list cell at 0x%X: %w", listOffset, err), StatusErr
	}
	payload := append([]byte(nil), raw...)

	if len(payload) < 4 {
		return fmt.Errorf("subkeysindex: cell at 0x%X too small for header: %w", listOffset, format.ErrTruncated), StatusErr
	}

	elementSize, atLeaf, err := classify(payload)
	if err != nil {
		return fmt.Errorf("subkeysindex: cell at 0x%X: %w", listOffset, err), StatusErr
	}

	count, err := format.CheckedReadU16(payload, format.ListCountOff)
	if err != nil {
		return fmt.Errorf("subkeysindex: count field at 0x%X: %w", listOffset, err), StatusErr
	}
	if _, err := buf.CheckListBounds(len(payload), format.ListElemsOff, int(count), elementSize); err != nil {
		return fmt.Errorf("subkeysindex: cell at 0x%X has %d bytes, needs %d for %d elements of size %d: %w",
			listOffset, len(payload), format.ListElemsOff+int(count)*elementSize, count, elementSize, format.ErrBoundsCheck), StatusErr
	}

	partial := false
	for i := 0; i < int(count); i++ {
		elemOff := format.ListElemsOff + i*elementSize
		off := int64(format.U32LEUnchecked(payload, elemOff))
		var hash uint32
		if elementSize == format.LFLHElemSize {
			hash = format.U32LEUnchecked(payload, elemOff+4)
		}

		switch store.GetIndexAtOffset(off) {
		case 1:
			if atLeaf {
				sink.Append(Entry{Offset: off, Hash: hash})
				continue
			}
			recErr, recStatus := walk(store, off, sink, depth+1)
			if recStatus == StatusErr {
				return recErr, StatusErr
			}
			if recStatus == StatusPartial {
				partial = true
			}
		case 0:
			partial = true
		default:
			return fmt.Errorf("subkeysindex: probing offset 0x%X: %w", off, format.ErrBoundsCheck), StatusErr
		}
	}

	if partial {
		return nil, StatusPartial
	}
	return nil, StatusOK
}

func classify(payload []byte) (elementSize int, atLeaf bool, err error) {
	sig := string(payload[:2])
	switch sig {
	case format.RISignature:
		return format.RIElemSize, false, nil
	case format.LISignature:
		return format.LIElemSize, true, nil
	case format.LFSignature, format.LHSignature:
		return format.LFLHElemSize, true, nil
	default:
		return 0, false, fmt.Errorf("signature %q: %w", sig, format.ErrBadSignature)
	}
}
