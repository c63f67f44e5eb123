// Package keyitem implements the KeyItem aggregate: the decoded form of one
// registry key, combining its named-key fields, optional class name,
// optional security descriptor, and values list. KeyItem.Load is the
// node-payload loader a KeyTree installs on each node.
package keyitem

import (
	"fmt"
	"time"

	"github.com/regfkit/keyitem/internal/format"
	"github.com/regfkit/keyitem/namedkey"
	"github.com/regfkit/keyitem/secdesc"
	"github.com/regfkit/keyitem/valuedata"
	"github.com/regfkit/keyitem/valuelist"
)

// ItemFlags is a bitset of soft-corruption and state markers carried on a
// KeyItem. Corruption here is never a hard error: it's a signal that some
// child offset didn't resolve and was skipped, while the rest of the key
// loaded normally.
type ItemFlags uint32

const (
	// FlagCorrupted is set when the sub-keys-list offset, the values-list
	// offset, or a values-list element offset failed to resolve during load
	// (and by keytree when a sub-keys walk skips an element). Class-name and
	// security-key failures are hard errors, not corruption.
	FlagCorrupted ItemFlags = 1 << iota
)

func (f ItemFlags) Corrupted() bool { return f&FlagCorrupted != 0 }

// BinCellStore is the cell store KeyItem.Load reads through. It is shared
// with subkeysindex.BinCellStore and valuelist.BinCellStore; any
// cellstore.Store satisfies all three structurally.
type BinCellStore interface {
	GetCellAtOffset(offset int64) ([]byte, error)
	GetIndexAtOffset(offset int64) int
}

// KeyItem is the decoded, owned aggregate for one registry key.
type KeyItem struct {
	Named      namedkey.NamedKey
	ClassName  []byte // nil if absent
	Security   *secdesc.SecurityDescriptor // nil if absent
	Values     *valuelist.List
	Flags      ItemFlags

	// SubKeysListOffset is the (possibly sentinel format.NoOffset) offset
	// KeyTree should hand to subkeysindex.Walk when the consumer first asks
	// for this node's children. It is left at format.NoOffset whenever
	// NumberOfSubKeys == 0 or the offset failed to probe, in which case the
	// node has no children.
	SubKeysListOffset int64
}

// Load runs the full §4.4 aggregate-load sequence for the key cell at
// keyOffset, verifying its on-disk name hash against nameHash (pass 0 to
// skip verification, e.g. for the hive's root key).
func Load(store BinCellStore, keyOffset int64, nameHash uint32) (*KeyItem, error) {
	cell, err := store.GetCellAtOffset(keyOffset)
	if err != nil {
		return nil, fmt.Errorf("keyitem: fetch key cell at 0x%X: %w", keyOffset, err)
	}
	nk, err := namedkey.Decode(cell, nameHash)
	if err != nil {
		return nil, fmt.Errorf("keyitem: decode named key at 0x%X: %w", keyOffset, err)
	}

	item := &KeyItem{Named: nk, SubKeysListOffset: format.NoOffset}

	if err := item.loadClassName(store, nk.ClassNameOffset, nk.ClassNameSize); err != nil {
		return nil, fmt.Errorf("keyitem: class name: %w", err)
	}

	// format.NoOffset here only ever means the 0xFFFFFFFF sentinel (see
	// namedkey.absentOnlyAtMax); a security offset of 0 is real and must be
	// fetched, per §4.4 step 4.
	if nk.SecurityKeyOffset != format.NoOffset {
		secCell, err := store.GetCellAtOffset(nk.SecurityKeyOffset)
		if err != nil {
			return nil, fmt.Errorf("keyitem: fetch security cell at 0x%X: %w", nk.SecurityKeyOffset, err)
		}
		sd, err := secdesc.Decode(secCell)
		if err != nil {
			return nil, fmt.Errorf("keyitem: decode security cell at 0x%X: %w", nk.SecurityKeyOffset, err)
		}
		item.Security = &sd
	}

	if nk.NumberOfSubKeys > 0 {
		if store.GetIndexAtOffset(nk.SubKeysListOffset) == 1 {
			item.SubKeysListOffset = nk.SubKeysListOffset
		} else {
			item.Flags |= FlagCorrupted
		}
	}

	item.Values = valuelist.New(valueElementLoader{}, valuelist.DefaultCacheCapacity)
	if nk.NumberOfValues > 0 {
		switch store.GetIndexAtOffset(nk.ValuesListOffset) {
		case 1:
			corrupted, err := item.Values.LoadElements(store, nk.ValuesListOffset, nk.NumberOfValues)
			if err != nil {
				return nil, fmt.Errorf("keyitem: load values list: %w", err)
			}
			if corrupted {
				item.Flags |= FlagCorrupted
			}
		default:
			item.Flags |= FlagCorrupted
		}
	}

	return item, nil
}

// LastWrite returns the key's last-written timestamp, surfaced directly
// instead of requiring callers to reach through Named.
func (item *KeyItem) LastWrite() time.Time { return item.Named.Written }

// NamedKeyFlags returns the raw on-disk NK flags word.
func (item *KeyItem) NamedKeyFlags() uint16 { return item.Named.Flags }

// SecurityReferenceCount returns the security cell's reference count and
// true, or (0, false) if this key has no security descriptor.
func (item *KeyItem) SecurityReferenceCount() (uint32, bool) {
	if item.Security == nil {
		return 0, false
	}
	return item.Security.RefCount, true
}

// loadClassName implements §4.1 ClassNameLoader. offset is the raw,
// un-collapsed class-name offset (namedkey.absentOnlyAtMax preserves 0 as a
// real offset distinct from the format.NoOffset sentinel), so the offset==0
// branches below are reachable exactly as libregf_key_item_read_class_name
// requires: 0xffffffff is absent, 0 with size 0 is absent, 0 with size>0 is
// an error.
func (item *KeyItem) loadClassName(store BinCellStore, offset int64, size uint16) error {
	switch {
	case offset == format.NoOffset:
		return nil
	case offset == 0 && size == 0:
		return nil
	case offset == 0 && size > 0:
		return fmt.Errorf("class name offset 0 with nonzero size %d: %w", size, format.ErrBoundsCheck)
	}

	cell, err := store.GetCellAtOffset(offset)
	if err != nil {
		return fmt.Errorf("fetch class name cell at 0x%X: %w", offset, err)
	}
	// A real, non-sentinel offset still requires size > 0 — confirmed by
	// libregf_key_item_read_class_name_data's own bounds check.
	if size == 0 {
		return fmt.Errorf("class name size 0 with non-sentinel offset 0x%X: %w", offset, format.ErrBoundsCheck)
	}
	if int(size) > len(cell) {
		return fmt.Errorf("class name size %d exceeds cell payload %d: %w", size, len(cell), format.ErrBoundsCheck)
	}

	owned := make([]byte, size)
	copy(owned, cell[:size])
	item.ClassName = owned
	return nil
}

// valueElementLoader adapts valuedata.Decode to valuelist.ElementLoader.
type valueElementLoader struct{}

func (valueElementLoader) Load(store valuelist.BinCellStore, offset int64) (any, error) {
	cell, err := store.GetCellAtOffset(offset)
	if err != nil {
		return nil, err
	}
	return valuedata.Decode(store, cell)
}
