// Package valuelist implements the ValueList component: an ordered set of
// value-cell offsets belonging to one key, decoded on demand through an
// LRU cache of bounded size.
package valuelist

import (
	"fmt"

	"github.com/regfkit/keyitem/internal/buf"
	"github.com/regfkit/keyitem/internal/format"
)

// DefaultCacheCapacity is the LRU cache capacity KeyItem.Load uses when
// constructing a List, matching MAX_VALUE_CACHE_ENTRIES (§4.2).
const DefaultCacheCapacity = format.MaxValueCacheEntries

// BinCellStore is the subset of the shared cell store that ValueList needs:
// fetching a cell's payload, and probing whether an offset resolves to a
// known bin without actually fetching it.
type BinCellStore interface {
	GetCellAtOffset(offset int64) ([]byte, error)
	// GetIndexAtOffset reports whether offset is covered by a known bin:
	// 1 known, 0 unknown, -1 on an internal error while probing.
	GetIndexAtOffset(offset int64) int
}

// ElementLoader decodes the value-key cell at offset into a value. It is
// called at most once per element per cache generation; List handles
// caching the result.
type ElementLoader interface {
	Load(store BinCellStore, offset int64) (any, error)
}

// ElementLoaderFunc adapts a plain function to ElementLoader.
type ElementLoaderFunc func(store BinCellStore, offset int64) (any, error)

func (f ElementLoaderFunc) Load(store BinCellStore, offset int64) (any, error) {
	return f(store, offset)
}

type cacheEntry struct {
	prev, next *cacheEntry
	index      int
	value      any
}

// List is the ValueList component: elements plus an LRU of decoded values.
type List struct {
	loader   ElementLoader
	capacity int

	offsets []int64

	cache      map[int]*cacheEntry
	head, tail cacheEntry // intrusive sentinel nodes; head.next is MRU
}

// New creates an empty List bound to loader, with an LRU cache capacity of
// cacheCapacity decoded values.
func New(loader ElementLoader, cacheCapacity int) *List {
	l := &List{
		loader:   loader,
		capacity: cacheCapacity,
		cache:    make(map[int]*cacheEntry, cacheCapacity),
	}
	l.head.next = &l.tail
	l.tail.prev = &l.head
	return l
}

// Count returns the number of successfully resolved elements.
func (l *List) Count() int { return len(l.offsets) }

// LoadElements populates the list from the value-list cell at listOffset,
// which must contain at least count*4 bytes of little-endian u32 offsets.
// Elements whose offset doesn't resolve to a known bin are skipped and
// reported via corrupted=true; this never fails the whole call unless
// listOffset is absent, the list cell itself can't be fetched or is too
// small, or probing an element reports an internal error.
func (l *List) LoadElements(store BinCellStore, listOffset int64, count uint32) (corrupted bool, err error) {
	if count == 0 {
		return false, nil
	}
	if listOffset == 0 || listOffset == format.NoOffset {
		return false, fmt.Errorf("valuelist: list offset absent with count=%d: %w", count, format.ErrBoundsCheck)
	}

	cell, err := store.GetCellAtOffset(listOffset)
	if err != nil {
		return false, fmt.Errorf("valuelist: fetch list cell: %w", err)
	}
	needed, err := buf.CheckListBounds(len(cell), 0, int(count), format.ValueListElemSize)
	if err != nil {
		return false, fmt.Errorf("valuelist: list cell %d bytes, need %d for %d elements: %w", len(cell), int(count)*format.ValueListElemSize, count, format.ErrBoundsCheck)
	}
	// Copy out: the list cell bytes must survive subsequent store calls
	// (GetIndexAtOffset on this same store) made while we walk elements.
	elems := append([]byte(nil), cell[:needed]...)

	offsets := make([]int64, 0, count)
	for i := 0; i < int(count); i++ {
		off := int64(format.U32LEUnchecked(elems, i*format.ValueListElemSize))
		switch store.GetIndexAtOffset(off) {
		case 1:
			offsets = append(offsets, off)
		case 0:
			corrupted = true
		default:
			return corrupted, fmt.Errorf("valuelist: probing element %d at 0x%X: %w", i, off, format.ErrBoundsCheck)
		}
	}
	l.offsets = offsets
	return corrupted, nil
}

// Get returns the decoded value at index, loading and caching it on first
// access. Subsequent Get calls for the same index return the cached value
// until it's evicted by the LRU.
func (l *List) Get(store BinCellStore, index int) (any, error) {
	if index < 0 || index >= len(l.offsets) {
		return nil, fmt.Errorf("valuelist: index %d out of range [0,%d): %w", index, len(l.offsets), format.ErrBoundsCheck)
	}
	if e, ok := l.cache[index]; ok {
		l.moveToFront(e)
		return e.value, nil
	}

	v, err := l.loader.Load(store, l.offsets[index])
	if err != nil {
		return nil, err
	}
	l.insert(index, v)
	return v, nil
}

func (l *List) insert(index int, v any) {
	if l.capacity <= 0 {
		return
	}
	if len(l.cache) >= l.capacity {
		if lru := l.tail.prev; lru != &l.head {
			l.remove(lru)
			delete(l.cache, lru.index)
		}
	}
	e := &cacheEntry{index: index, value: v}
	l.pushFront(e)
	l.cache[index] = e
}

func (l *List) remove(e *cacheEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

func (l *List) pushFront(e *cacheEntry) {
	e.prev = &l.head
	e.next = l.head.next
	l.head.next.prev = e
	l.head.next = e
}

func (l *List) moveToFront(e *cacheEntry) {
	l.remove(e)
	l.pushFront(e)
}

// CacheLen reports how many decoded values are currently cached.
func (l *List) CacheLen() int { return len(l.cache) }

// Evict clears all cached decoded values without discarding the element
// offsets, forcing the next Get for each index to reload through loader.
func (l *List) Evict() {
	l.cache = make(map[int]*cacheEntry, l.capacity)
	l.head.next = &l.tail
	l.tail.prev = &l.head
}
