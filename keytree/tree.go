// Package keytree implements the lazy, on-demand tree of KeyItems: a node's
// payload (its KeyItem) and its children are each computed on first access
// and cached, exactly as described for the aggregate load's tree framework.
package keytree

import (
	"fmt"

	"github.com/regfkit/keyitem/internal/format"
	"github.com/regfkit/keyitem/keyitem"
	"github.com/regfkit/keyitem/subkeysindex"
)

// NodeState tracks how much of a Node has been computed so far.
type NodeState int

const (
	StateUnloaded NodeState = iota
	StatePayloadLoaded
	StateChildrenEnumerated
)

// Node is one tree node: a stable (offset, nameHash) identity plus whatever
// has been loaded for it so far.
type Node struct {
	offset   int64
	nameHash uint32

	state     NodeState
	item      *keyitem.KeyItem
	children  []*Node
	corrupted bool // set if the sub-nodes walk returned partial
}

// Offset returns the node's key-cell offset.
func (n *Node) Offset() int64 { return n.offset }

// State returns the node's current lazy-load state.
func (n *Node) State() NodeState { return n.state }

// Item returns the node's KeyItem, loading it on first access.
func (n *Node) Item(store keyitem.BinCellStore) (*keyitem.KeyItem, error) {
	if n.state == StateUnloaded {
		item, err := keyitem.Load(store, n.offset, n.nameHash)
		if err != nil {
			return nil, fmt.Errorf("keytree: load node at 0x%X: %w", n.offset, err)
		}
		n.item = item
		n.state = StatePayloadLoaded
	}
	return n.item, nil
}

// Children returns the node's child nodes, running the sub-keys walk on
// first access. A partial sub-keys walk is translated into "continue
// without error" at this layer and recorded by setting the KeyItem's
// CORRUPTED bit, so a caller
// that only wants user-visible children doesn't need to special-case
// "partial" as a distinct outcome from "fully enumerated, some known to be
// missing."
func (n *Node) Children(store keyitem.BinCellStore) ([]*Node, error) {
	if n.state == StateChildrenEnumerated {
		return n.children, nil
	}

	// Loading children requires the payload to already be loaded, since the
	// sub-keys list offset and corruption flag live on the KeyItem.
	item, err := n.Item(store)
	if err != nil {
		return nil, err
	}

	if item.SubKeysListOffset == format.NoOffset {
		n.state = StateChildrenEnumerated
		return nil, nil
	}

	var sink subkeysindex.SliceSink
	status := subkeysindex.Walk(store, item.SubKeysListOffset, &sink)
	switch status {
	case subkeysindex.StatusErr:
		return nil, fmt.Errorf("keytree: sub-keys walk for node at 0x%X failed", n.offset)
	case subkeysindex.StatusPartial:
		n.corrupted = true
		item.Flags |= keyitem.FlagCorrupted
	}

	children := make([]*Node, len(sink))
	for i, e := range sink {
		children[i] = &Node{offset: e.Offset, nameHash: e.Hash}
	}
	n.children = children
	n.state = StateChildrenEnumerated
	return children, nil
}

// Evict resets the node back to StateUnloaded, discarding its cached
// KeyItem and child list, the same transition the external cache-eviction
// framework would drive.
func (n *Node) Evict() {
	n.item = nil
	n.children = nil
	n.corrupted = false
	n.state = StateUnloaded
}

// Tree is a lazily-materialized KeyItem tree rooted at one key offset.
type Tree struct {
	store keyitem.BinCellStore
	root  *Node
}

// New creates a Tree rooted at rootOffset. The root's name hash is never
// verified (there is nothing to verify it against).
func New(store keyitem.BinCellStore, rootOffset int64) *Tree {
	return &Tree{store: store, root: &Node{offset: rootOffset}}
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Item loads and returns n's KeyItem using the tree's store.
func (t *Tree) Item(n *Node) (*keyitem.KeyItem, error) { return n.Item(t.store) }

// Children loads and returns n's children using the tree's store.
func (t *Tree) Children(n *Node) ([]*Node, error) { return n.Children(t.store) }
