package main

import (
	"fmt"
	"strings"

	"github.com/regfkit/keyitem/cellstore"
	"github.com/regfkit/keyitem/keytree"
)

// openTree opens the hive at path and returns its cell store and a Tree
// rooted at the hive's root key. The caller must Close the store.
func openTree(path string) (*cellstore.Store, *keytree.Tree, error) {
	store, err := cellstore.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open hive: %w", err)
	}
	tree := keytree.New(store, store.RootOffset())
	return store, tree, nil
}

// resolvePath walks tree from its root through the backslash-separated
// path components in keyPath, matching child names case-insensitively as
// the registry namespace does. An empty keyPath resolves to the root.
func resolvePath(tree *keytree.Tree, keyPath string) (*keytree.Node, error) {
	node := tree.Root()
	if keyPath == "" {
		return node, nil
	}

	for _, part := range strings.Split(keyPath, `\`) {
		if part == "" {
			continue
		}
		children, err := tree.Children(node)
		if err != nil {
			return nil, fmt.Errorf("enumerate children: %w", err)
		}

		var next *keytree.Node
		for _, c := range children {
			item, err := tree.Item(c)
			if err != nil {
				return nil, fmt.Errorf("load child: %w", err)
			}
			if strings.EqualFold(item.Named.Name, part) {
				next = c
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("no such subkey %q under %q", part, keyPath)
		}
		node = next
	}
	return node, nil
}
