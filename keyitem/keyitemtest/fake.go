// Package keyitemtest provides an in-memory BinCellStore fake for tests
// across the keyitem, valuelist, subkeysindex, and keytree packages,
// including a borrow-invalidating variant for exercising the
// copy-before-recurse discipline those packages depend on.
package keyitemtest

import "fmt"

// Store is a plain in-memory BinCellStore: every offset not present in
// Cells is reported unknown by GetIndexAtOffset and fails GetCellAtOffset.
type Store struct {
	Cells map[int64][]byte
}

func NewStore() *Store {
	return &Store{Cells: make(map[int64][]byte)}
}

func (s *Store) Put(offset int64, payload []byte) *Store {
	s.Cells[offset] = payload
	return s
}

func (s *Store) GetCellAtOffset(offset int64) ([]byte, error) {
	c, ok := s.Cells[offset]
	if !ok {
		return nil, fmt.Errorf("keyitemtest: no cell at 0x%X", offset)
	}
	return c, nil
}

func (s *Store) GetIndexAtOffset(offset int64) int {
	if _, ok := s.Cells[offset]; ok {
		return 1
	}
	return 0
}

// PermutingStore wraps a Store and, on every call, overwrites the bytes of
// every previously returned cell payload with 0xFF before satisfying the
// new request. It is the "permuting eviction" fake the borrow-invalidation
// tests are built around: a consumer that reads a field from a borrowed
// payload, then calls the store again, then reads another field from the
// first payload without having copied it, will observe corrupted bytes
// instead of silently getting lucky because nothing really moved in
// memory.
type PermutingStore struct {
	*Store
	lastReturned []byte
}

func NewPermutingStore(backing *Store) *PermutingStore {
	return &PermutingStore{Store: backing}
}

func (p *PermutingStore) GetCellAtOffset(offset int64) ([]byte, error) {
	if p.lastReturned != nil {
		for i := range p.lastReturned {
			p.lastReturned[i] = 0xFF
		}
	}
	payload, err := p.Store.GetCellAtOffset(offset)
	if err != nil {
		p.lastReturned = nil
		return nil, err
	}
	p.lastReturned = payload
	return payload, nil
}
