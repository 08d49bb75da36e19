// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package smt

import (
	"testing"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/rollupvm/types"
)

func testKV(n int) ([]ids.ID, []ids.ID) {
	keys := make([]ids.ID, n)
	values := make([]ids.ID, n)
	for i := 0; i < n; i++ {
		keys[i] = types.Hash([]byte{byte(i), 'k'})
		values[i] = types.Hash([]byte{byte(i), 'v'})
	}
	return keys, values
}

func TestEmptyTree(t *testing.T) {
	require := require.New(t)

	tree := New(memdb.New(), ids.Empty, nil)
	require.Equal(ids.Empty, tree.Root())

	value, err := tree.Get(ids.ID{1})
	require.NoError(err)
	require.Equal(ids.Empty, value)

	// removing from the empty tree is a no-op
	require.NoError(tree.Update(ids.ID{1}, ids.Empty))
	require.Equal(ids.Empty, tree.Root())
}

func TestSingleLeafRoot(t *testing.T) {
	require := require.New(t)

	key, value := ids.ID{1, 2, 3}, ids.ID{4, 5, 6}
	tree := New(memdb.New(), ids.Empty, nil)
	require.NoError(tree.Update(key, value))

	expected := types.Hash([]byte{leafTag}, key[:], value[:])
	require.Equal(expected, tree.Root())
}

func TestTwoLeavesRoot(t *testing.T) {
	require := require.New(t)

	// the keys differ in the first bit
	left, right := ids.ID{0x00, 1}, ids.ID{0x80, 1}
	value := ids.ID{9}
	tree := New(memdb.New(), ids.Empty, nil)
	require.NoError(tree.Update(right, value))
	require.NoError(tree.Update(left, value))

	leftLeaf := types.Hash([]byte{leafTag}, left[:], value[:])
	rightLeaf := types.Hash([]byte{leafTag}, right[:], value[:])
	expected := types.Hash([]byte{branchTag}, leftLeaf[:], rightLeaf[:])
	require.Equal(expected, tree.Root())
}

func TestGetUpdate(t *testing.T) {
	require := require.New(t)

	keys, values := testKV(64)
	tree := New(memdb.New(), ids.Empty, nil)
	for i := range keys {
		require.NoError(tree.Update(keys[i], values[i]))
	}
	for i := range keys {
		value, err := tree.Get(keys[i])
		require.NoError(err)
		require.Equal(values[i], value)
	}

	absent, err := tree.Get(types.Hash([]byte("absent")))
	require.NoError(err)
	require.Equal(ids.Empty, absent)
}

func TestRootIsOrderIndependent(t *testing.T) {
	require := require.New(t)

	keys, values := testKV(50)
	db := memdb.New()

	forward := New(db, ids.Empty, nil)
	for i := range keys {
		require.NoError(forward.Update(keys[i], values[i]))
	}
	backward := New(db, ids.Empty, nil)
	for i := len(keys) - 1; i >= 0; i-- {
		require.NoError(backward.Update(keys[i], values[i]))
	}
	require.Equal(forward.Root(), backward.Root())

	// overwrites do not leave a trace
	rewritten := New(db, ids.Empty, nil)
	for i := range keys {
		require.NoError(rewritten.Update(keys[i], ids.ID{0xff}))
	}
	for i := range keys {
		require.NoError(rewritten.Update(keys[i], values[i]))
	}
	require.Equal(forward.Root(), rewritten.Root())
}

func TestDeleteRestoresRoot(t *testing.T) {
	require := require.New(t)

	keys, values := testKV(40)
	tree := New(memdb.New(), ids.Empty, &cache.LRU[ids.ID, []byte]{Size: 1024})
	for i := 0; i < 20; i++ {
		require.NoError(tree.Update(keys[i], values[i]))
	}
	before := tree.Root()

	for i := 20; i < 40; i++ {
		require.NoError(tree.Update(keys[i], values[i]))
	}
	require.NotEqual(before, tree.Root())

	for i := 39; i >= 20; i-- {
		require.NoError(tree.Update(keys[i], ids.Empty))
	}
	require.Equal(before, tree.Root())

	for i := 0; i < 20; i++ {
		require.NoError(tree.Update(keys[i], ids.Empty))
	}
	require.Equal(ids.Empty, tree.Root())
}

func TestOldRootsStayReadable(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	key := types.Hash([]byte("account"))
	tree := New(db, ids.Empty, nil)
	require.NoError(tree.Update(key, ids.ID{1}))
	v1 := tree.Root()
	require.NoError(tree.Update(key, ids.ID{2}))

	old := New(db, v1, nil)
	value, err := old.Get(key)
	require.NoError(err)
	require.Equal(ids.ID{1}, value)
}

func TestMissingNode(t *testing.T) {
	require := require.New(t)

	tree := New(memdb.New(), ids.ID{0xde, 0xad}, nil)
	_, err := tree.Get(ids.ID{1})
	require.ErrorIs(err, ErrMissingNode)
	require.ErrorIs(tree.Update(ids.ID{1}, ids.ID{1}), ErrMissingNode)
}
