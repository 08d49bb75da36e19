// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis builds the first block of a rollup.
package genesis

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"

	"github.com/ava-labs/rollupvm/config"
	"github.com/ava-labs/rollupvm/smt"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

// InitialAggregatorAccountID is the account funded at genesis.
const InitialAggregatorAccountID uint32 = 2

var (
	ErrStoreNotEmpty = errors.New("store is not empty")

	errUnexpectedAccountID = errors.New("unexpected reserved account id")
)

// GenesisWithState is the genesis block and the global state it commits to.
type GenesisWithState struct {
	Block       *types.L2Block
	GlobalState types.GlobalState
}

// BuildGenesis derives the genesis block from its inputs only.
func BuildGenesis(cfg *config.GenesisConfig, rollup *types.RollupConfig, rollupScriptHash ids.ID) (*GenesisWithState, error) {
	s, err := store.Open(memdb.New())
	if err != nil {
		return nil, err
	}
	txn := s.BeginTransaction()
	defer txn.Discard()

	return buildGenesis(txn, cfg, rollup, rollupScriptHash)
}

// InitGenesis commits the genesis block into an empty store.
func InitGenesis(
	s *store.Store,
	cfg *config.GenesisConfig,
	rollup *types.RollupConfig,
	header types.HeaderInfo,
	rollupScriptHash ids.ID,
) error {
	if !s.IsEmpty() {
		return ErrStoreNotEmpty
	}

	txn := s.BeginTransaction()
	genesis, err := buildGenesis(txn, cfg, rollup, rollupScriptHash)
	if err != nil {
		txn.Discard()
		return err
	}
	if err := txn.InsertBlock(genesis.Block, &store.BlockL1Info{Header: header}); err != nil {
		txn.Discard()
		return err
	}
	if _, err := txn.Commit(); err != nil {
		txn.Discard()
		return err
	}
	return nil
}

func createReservedAccount(txn *store.Transaction, id uint32, script *types.Script) error {
	created, err := state.CreateAccount(txn, script)
	if err != nil {
		return err
	}
	if created != id {
		return fmt.Errorf("%w: got %d, expected %d", errUnexpectedAccountID, created, id)
	}
	return nil
}

// buildGenesis fills [txn] with the genesis accounts. The genesis block is
// returned but not inserted.
func buildGenesis(txn *store.Transaction, cfg *config.GenesisConfig, rollup *types.RollupConfig, rollupScriptHash ids.ID) (*GenesisWithState, error) {
	meta := &types.Script{
		CodeHash: rollup.MetaContractCodeHash,
		HashType: types.HashTypeData,
		Args:     rollupScriptHash[:],
	}
	if err := createReservedAccount(txn, types.MetaContractAccountID, meta); err != nil {
		return nil, fmt.Errorf("meta contract: %w", err)
	}
	ckb := &types.Script{
		CodeHash: rollup.SUDTCodeHash,
		HashType: types.HashTypeType,
		Args:     make([]byte, len(ids.Empty)),
	}
	if err := createReservedAccount(txn, types.CKBSUDTAccountID, ckb); err != nil {
		return nil, fmt.Errorf("ckb simple udt: %w", err)
	}
	aggregator := cfg.InitialAggregatorScript
	if err := createReservedAccount(txn, InitialAggregatorAccountID, &aggregator); err != nil {
		return nil, fmt.Errorf("initial aggregator: %w", err)
	}
	deposition := uint256.NewInt(cfg.InitialDeposition)
	if err := state.MintBalance(txn, types.CKBSUDTAccountID, InitialAggregatorAccountID, deposition); err != nil {
		return nil, err
	}

	account, err := state.GetMerkleState(txn)
	if err != nil {
		return nil, err
	}
	blk := &types.L2Block{
		Raw: types.RawL2Block{
			Number:      0,
			ProducerID:  InitialAggregatorAccountID,
			Timestamp:   cfg.Timestamp,
			PrevAccount: account,
			PostAccount: account,
		},
	}

	// The block tree of the genesis state holds the genesis block only.
	blkID := blk.Hash()
	blockTree := smt.New(memdb.New(), ids.Empty, nil)
	if err := blockTree.Update(state.BlockKey(blk.Number()), blkID); err != nil {
		return nil, err
	}

	return &GenesisWithState{
		Block: blk,
		GlobalState: types.GlobalState{
			Account:          account,
			Block:            types.BlockMerkleState{Root: blockTree.Root(), Count: 1},
			TipBlockHash:     blkID,
			RollupConfigHash: rollup.Hash(),
			Status:           types.StatusRunning,
		},
	}, nil
}
