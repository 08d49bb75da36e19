// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package smt implements a sparse merkle tree over 256-bit keys whose nodes
// are stored content-addressed in a database. Nodes are never deleted, so any
// previously computed root remains readable.
package smt

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/types"
)

const (
	leafTag   byte = 0x00
	branchTag byte = 0x01

	nodeLen = 1 + 32 + 32

	// KeyBits is the depth of the tree.
	KeyBits = 256
)

var (
	// ErrMissingNode means the tree references a node the database does not
	// hold. The state is corrupted.
	ErrMissingNode = errors.New("smt: missing node")
	errBadNode     = errors.New("smt: malformed node")
)

type node struct {
	isLeaf bool
	// leaf: key and value. branch: left and right child hashes.
	a, b ids.ID
}

func (n *node) bytes() []byte {
	raw := make([]byte, nodeLen)
	if n.isLeaf {
		raw[0] = leafTag
	} else {
		raw[0] = branchTag
	}
	copy(raw[1:33], n.a[:])
	copy(raw[33:], n.b[:])
	return raw
}

func parseNode(raw []byte) (*node, error) {
	if len(raw) != nodeLen || (raw[0] != leafTag && raw[0] != branchTag) {
		return nil, errBadNode
	}
	n := &node{isLeaf: raw[0] == leafTag}
	copy(n.a[:], raw[1:33])
	copy(n.b[:], raw[33:])
	return n, nil
}

// Tree is a handle on one root of the tree. It is not safe for concurrent
// use; separate handles over the same database are.
type Tree struct {
	db    database.Database
	nodes cache.Cacher[ids.ID, []byte]
	root  ids.ID
}

// New returns a tree rooted at [root]. [nodes] may be nil.
func New(db database.Database, root ids.ID, nodes cache.Cacher[ids.ID, []byte]) *Tree {
	return &Tree{
		db:    db,
		nodes: nodes,
		root:  root,
	}
}

// Root returns the current root. The empty tree has the zero root.
func (t *Tree) Root() ids.ID { return t.root }

// Get returns the value stored at [key], or zero if it is absent.
func (t *Tree) Get(key ids.ID) (ids.ID, error) {
	current := t.root
	for depth := 0; depth < KeyBits; depth++ {
		if current == ids.Empty {
			return ids.Empty, nil
		}
		n, err := t.getNode(current)
		if err != nil {
			return ids.Empty, err
		}
		if n.isLeaf {
			if n.a == key {
				return n.b, nil
			}
			return ids.Empty, nil
		}
		if bit(key, depth) == 0 {
			current = n.a
		} else {
			current = n.b
		}
	}
	return ids.Empty, fmt.Errorf("%w: path for %s exceeds tree depth", errBadNode, key)
}

// Update sets [key] to [value]. A zero value removes the key.
func (t *Tree) Update(key, value ids.ID) error {
	root, err := t.update(t.root, 0, key, value)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Tree) update(current ids.ID, depth int, key, value ids.ID) (ids.ID, error) {
	if current == ids.Empty {
		if value == ids.Empty {
			return ids.Empty, nil
		}
		return t.putNode(&node{isLeaf: true, a: key, b: value})
	}
	n, err := t.getNode(current)
	if err != nil {
		return ids.Empty, err
	}
	if n.isLeaf {
		switch {
		case n.a == key && value == ids.Empty:
			return ids.Empty, nil
		case n.a == key:
			return t.putNode(&node{isLeaf: true, a: key, b: value})
		case value == ids.Empty:
			// removing an absent key
			return current, nil
		}
		leaf, err := t.putNode(&node{isLeaf: true, a: key, b: value})
		if err != nil {
			return ids.Empty, err
		}
		return t.join(depth, n.a, current, key, leaf)
	}
	if depth >= KeyBits {
		return ids.Empty, errBadNode
	}

	left, right := n.a, n.b
	if bit(key, depth) == 0 {
		left, err = t.update(left, depth+1, key, value)
	} else {
		right, err = t.update(right, depth+1, key, value)
	}
	if err != nil {
		return ids.Empty, err
	}
	return t.putBranch(left, right)
}

// join builds the subtree holding exactly the two leaves at [depth].
func (t *Tree) join(depth int, key1, leaf1, key2, leaf2 ids.ID) (ids.ID, error) {
	if depth >= KeyBits {
		return ids.Empty, errBadNode
	}
	b1, b2 := bit(key1, depth), bit(key2, depth)
	if b1 != b2 {
		if b1 == 0 {
			return t.putNode(&node{a: leaf1, b: leaf2})
		}
		return t.putNode(&node{a: leaf2, b: leaf1})
	}
	child, err := t.join(depth+1, key1, leaf1, key2, leaf2)
	if err != nil {
		return ids.Empty, err
	}
	if b1 == 0 {
		return t.putNode(&node{a: child, b: ids.Empty})
	}
	return t.putNode(&node{a: ids.Empty, b: child})
}

// putBranch keeps the tree canonical: a subtree holding a single leaf is
// represented by that leaf.
func (t *Tree) putBranch(left, right ids.ID) (ids.ID, error) {
	switch {
	case left == ids.Empty && right == ids.Empty:
		return ids.Empty, nil
	case left == ids.Empty || right == ids.Empty:
		only := left
		if only == ids.Empty {
			only = right
		}
		n, err := t.getNode(only)
		if err != nil {
			return ids.Empty, err
		}
		if n.isLeaf {
			return only, nil
		}
	}
	return t.putNode(&node{a: left, b: right})
}

func (t *Tree) getNode(hash ids.ID) (*node, error) {
	if t.nodes != nil {
		if raw, ok := t.nodes.Get(hash); ok {
			return parseNode(raw)
		}
	}
	raw, err := t.db.Get(hash[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingNode, hash)
	}
	if err != nil {
		return nil, err
	}
	if t.nodes != nil {
		t.nodes.Put(hash, raw)
	}
	return parseNode(raw)
}

func (t *Tree) putNode(n *node) (ids.ID, error) {
	raw := n.bytes()
	hash := types.Hash(raw)
	if err := t.db.Put(hash[:], raw); err != nil {
		return ids.Empty, err
	}
	if t.nodes != nil {
		t.nodes.Put(hash, raw)
	}
	return hash, nil
}

// bit returns the [i]th most significant bit of [key].
func bit(key ids.ID, i int) byte {
	return (key[i/8] >> (7 - uint(i%8))) & 1
}
