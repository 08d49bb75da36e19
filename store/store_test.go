// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

func testBlock(number uint64, parent ids.ID) *types.L2Block {
	return &types.L2Block{
		Raw: types.RawL2Block{
			Number:          number,
			ParentBlockHash: parent,
			Timestamp:       number * 10,
		},
	}
}

func TestOpenEmpty(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)
	require.True(s.IsEmpty())

	tip := s.TipVersion()
	require.Zero(tip.ID)
	require.Equal(ids.Empty, tip.AccountRoot)

	_, err = s.TipBlock()
	require.ErrorIs(err, ErrBlockNotFound)
}

func TestCommitAdvancesTip(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)

	txn := s.BeginTransaction()
	require.NoError(txn.UpdateRaw(ids.ID{1}, ids.ID{2}))
	require.NoError(txn.SetAccountCount(4))
	blk := testBlock(0, ids.Empty)
	require.NoError(txn.InsertBlock(blk, &BlockL1Info{
		Header:   types.HeaderInfo{Number: 9},
		Deposits: []types.DepositionRequest{{Amount: 5}},
	}))

	// Uncommitted writes are invisible to the store.
	require.True(s.IsEmpty())
	_, err = s.GetBlock(blk.Hash())
	require.ErrorIs(err, ErrBlockNotFound)

	id, err := txn.Commit()
	require.NoError(err)
	require.Equal(uint64(1), id)

	tip := s.TipVersion()
	require.Equal(uint64(1), tip.ID)
	require.Zero(tip.Parent)
	require.Equal(uint32(4), tip.AccountCount)
	require.Equal(uint64(1), tip.BlockCount)
	require.Equal(blk.Hash(), tip.TipBlockHash)
	require.NotEqual(ids.Empty, tip.AccountRoot)
	require.NotEqual(ids.Empty, tip.BlockRoot)

	got, err := s.TipBlock()
	require.NoError(err)
	require.Equal(blk.Hash(), got.Hash())

	version, err := s.GetBlockVersion(blk.Hash())
	require.NoError(err)
	require.Equal(uint64(1), version)

	l1Info, err := s.GetBlockL1Info(blk.Hash())
	require.NoError(err)
	require.Equal(uint64(9), l1Info.Header.Number)
	require.Len(l1Info.Deposits, 1)
	require.Equal(uint64(5), l1Info.Deposits[0].Amount)

	_, err = txn.Commit()
	require.ErrorIs(err, ErrClosed)
}

func TestDiscard(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)

	txn := s.BeginTransaction()
	require.NoError(txn.UpdateRaw(ids.ID{1}, ids.ID{2}))
	txn.Discard()

	require.Zero(s.TipVersion().ID)
	view := s.BeginTransaction()
	value, err := view.GetRaw(ids.ID{1})
	require.NoError(err)
	require.Equal(ids.Empty, value)
}

func TestTipMoved(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)

	first := s.BeginTransaction()
	second := s.BeginTransaction()
	require.NoError(first.UpdateRaw(ids.ID{1}, ids.ID{1}))
	require.NoError(second.UpdateRaw(ids.ID{2}, ids.ID{2}))

	_, err = first.Commit()
	require.NoError(err)
	_, err = second.Commit()
	require.ErrorIs(err, ErrTipMoved)
	second.Discard()
}

func TestCheckoutAndRevert(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)

	var roots []ids.ID
	for i := byte(1); i <= 3; i++ {
		txn := s.BeginTransaction()
		require.NoError(state.MintBalance(txn, types.CKBSUDTAccountID, 2, uint256.NewInt(uint64(i))))
		_, err := txn.Commit()
		require.NoError(err)
		roots = append(roots, s.TipVersion().AccountRoot)
	}

	view, err := s.Checkout(1)
	require.NoError(err)
	balance, err := state.GetBalance(view, types.CKBSUDTAccountID, 2)
	require.NoError(err)
	require.Equal(uint64(1), balance.Uint64())
	require.ErrorIs(view.UpdateRaw(ids.ID{1}, ids.ID{1}), ErrReadOnly)
	_, err = view.Commit()
	require.ErrorIs(err, ErrReadOnly)

	_, err = s.Checkout(10)
	require.ErrorIs(err, ErrVersionNotFound)

	require.NoError(s.RevertTo(1))
	require.Equal(roots[0], s.TipVersion().AccountRoot)
	require.ErrorIs(s.RevertTo(2), ErrRevertForward)

	// New versions keep counting from the last one ever committed.
	txn := s.BeginTransaction()
	require.NoError(state.MintBalance(txn, types.CKBSUDTAccountID, 2, uint256.NewInt(100)))
	id, err := txn.Commit()
	require.NoError(err)
	require.Equal(uint64(4), id)
	require.Equal(uint64(1), s.TipVersion().Parent)

	// Abandoned versions stay readable.
	view, err = s.Checkout(3)
	require.NoError(err)
	balance, err = state.GetBalance(view, types.CKBSUDTAccountID, 2)
	require.NoError(err)
	require.Equal(uint64(6), balance.Uint64())
}

func TestReopen(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	s, err := Open(db)
	require.NoError(err)

	txn := s.BeginTransaction()
	_, err = state.CreateAccount(txn, &types.Script{CodeHash: types.AlwaysSuccessCodeHash})
	require.NoError(err)
	dataHash, err := state.StoreData(txn, []byte{1, 2, 3})
	require.NoError(err)
	require.NoError(txn.InsertBlock(testBlock(0, ids.Empty), &BlockL1Info{}))
	_, err = txn.Commit()
	require.NoError(err)
	require.NoError(s.RevertTo(0))

	reopened, err := Open(db)
	require.NoError(err)
	require.Equal(s.TipVersion(), reopened.TipVersion())

	view, err := reopened.Checkout(1)
	require.NoError(err)
	_, script, err := state.GetAccountScript(view, 0)
	require.NoError(err)
	require.Equal(types.AlwaysSuccessCodeHash, script.CodeHash)
	data, err := view.GetData(dataHash)
	require.NoError(err)
	require.Equal([]byte{1, 2, 3}, data)

	_, err = view.GetScript(ids.ID{9})
	require.ErrorIs(err, state.ErrScriptNotFound)
}

func TestBlockIndex(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)

	txn := s.BeginTransaction()
	genesis := testBlock(0, ids.Empty)
	require.NoError(txn.InsertBlock(genesis, &BlockL1Info{}))
	require.ErrorIs(txn.InsertBlock(testBlock(5, genesis.Hash()), &BlockL1Info{}), ErrBlockNumber)
	next := testBlock(1, genesis.Hash())
	require.NoError(txn.InsertBlock(next, &BlockL1Info{}))

	blkID, ok, err := txn.GetBlockHashByNumber(1)
	require.NoError(err)
	require.True(ok)
	require.Equal(next.Hash(), blkID)
	require.Equal(next.Hash(), txn.TipBlockHash())
	require.Equal(uint64(2), txn.BlockMerkleState().Count)

	_, ok, err = txn.GetBlockHashByNumber(2)
	require.NoError(err)
	require.False(ok)

	got, err := txn.GetBlock(next.Hash())
	require.NoError(err)
	require.Equal(next.Hash(), got.Hash())
	txn.Discard()
}

func TestFork(t *testing.T) {
	require := require.New(t)

	s, err := Open(memdb.New())
	require.NoError(err)
	for i := byte(1); i <= 2; i++ {
		txn := s.BeginTransaction()
		require.NoError(txn.UpdateRaw(ids.ID{i}, ids.ID{i}))
		_, err := txn.Commit()
		require.NoError(err)
	}

	fork, err := s.Fork(1)
	require.NoError(err)
	value, err := fork.GetRaw(ids.ID{2})
	require.NoError(err)
	require.Equal(ids.Empty, value)

	require.NoError(fork.UpdateRaw(ids.ID{3}, ids.ID{3}))
	_, err = fork.Commit()
	require.ErrorIs(err, ErrDetached)
	fork.Discard()
	require.Equal(uint64(2), s.TipVersion().ID)
}
