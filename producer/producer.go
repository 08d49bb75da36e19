// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package producer assembles blocks from the mempool.
package producer

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

type ProduceBlockParam struct {
	ProducerID  uint32
	Timestamp   uint64
	Txs         []*types.L2Transaction
	Withdrawals []*types.WithdrawalRequest
	Deposits    []types.DepositionRequest
	// MaxWithdrawalCapacity caps the total amount withdrawn by the block.
	// Zero means no cap.
	MaxWithdrawalCapacity uint64
}

type ProduceBlockResult struct {
	Block       *types.L2Block
	GlobalState types.GlobalState
	Deposits    []types.DepositionRequest

	// Unused entries failed on the block state and will never be valid again.
	UnusedTransactions []*types.L2Transaction
	UnusedWithdrawals  []*types.WithdrawalRequest
	// UnusedDeposits were rejected and credited nothing. They stay in
	// [Deposits] since verifiers skip them by the same rule.
	UnusedDeposits []types.DepositionRequest
	// DeferredWithdrawals did not fit in the withdrawal capacity.
	DeferredWithdrawals []*types.WithdrawalRequest
}

// ProduceBlock executes withdrawals, then deposits, then transactions on
// [txn] and inserts the resulting block. Entries that fail are left out of
// the block. [txn] is left uncommitted.
func ProduceBlock(txn *store.Transaction, gen *generator.Generator, param *ProduceBlockParam) (*ProduceBlockResult, error) {
	prevAccount, err := state.GetMerkleState(txn)
	if err != nil {
		return nil, err
	}
	info := types.BlockInfo{
		ProducerID: param.ProducerID,
		Number:     txn.BlockMerkleState().Count,
		Timestamp:  param.Timestamp,
	}
	result := &ProduceBlockResult{Deposits: param.Deposits}

	var (
		checkpoints       []ids.ID
		withdrawals       []types.WithdrawalRequest
		withdrawalWitness []ids.ID
		txs               []types.L2Transaction
		txWitness         []ids.ID
		withdrawnCapacity uint64
	)
	for _, req := range param.Withdrawals {
		if param.MaxWithdrawalCapacity != 0 && req.Raw.Amount > param.MaxWithdrawalCapacity-withdrawnCapacity {
			result.DeferredWithdrawals = append(result.DeferredWithdrawals, req)
			continue
		}
		run, err := gen.ExecuteWithdrawal(txn, info, req)
		if generator.IsRejection(err) {
			result.UnusedWithdrawals = append(result.UnusedWithdrawals, req)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := generator.ApplyRunResult(txn, run); err != nil {
			return nil, err
		}
		root, err := txn.CalculateRoot()
		if err != nil {
			return nil, err
		}
		withdrawnCapacity += req.Raw.Amount
		checkpoints = append(checkpoints, root)
		withdrawals = append(withdrawals, *req)
		withdrawalWitness = append(withdrawalWitness, req.WitnessHash())
	}

	result.UnusedDeposits, err = gen.ApplyDeposits(txn, param.Deposits)
	if err != nil {
		return nil, err
	}

	for _, tx := range param.Txs {
		run, err := gen.Execute(txn, info, tx)
		if generator.IsRejection(err) {
			result.UnusedTransactions = append(result.UnusedTransactions, tx)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := generator.ApplyRunResult(txn, run); err != nil {
			return nil, err
		}
		root, err := txn.CalculateRoot()
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, root)
		txs = append(txs, *tx)
		txWitness = append(txWitness, tx.WitnessHash())
	}

	postAccount, err := state.GetMerkleState(txn)
	if err != nil {
		return nil, err
	}
	blk := &types.L2Block{
		Raw: types.RawL2Block{
			Number:                info.Number,
			ParentBlockHash:       txn.TipBlockHash(),
			ProducerID:            param.ProducerID,
			Timestamp:             param.Timestamp,
			PrevAccount:           prevAccount,
			PostAccount:           postAccount,
			TxWitnessRoot:         types.MerkleRoot(txWitness),
			TxCount:               uint32(len(txs)),
			WithdrawalWitnessRoot: types.MerkleRoot(withdrawalWitness),
			WithdrawalCount:       uint32(len(withdrawals)),
			StateCheckpoints:      checkpoints,
		},
		Transactions: txs,
		Withdrawals:  withdrawals,
	}
	if err := txn.InsertBlock(blk, &store.BlockL1Info{Deposits: param.Deposits}); err != nil {
		return nil, err
	}

	result.Block = blk
	result.GlobalState = types.GlobalState{
		Account:          postAccount,
		Block:            txn.BlockMerkleState(),
		TipBlockHash:     blk.Hash(),
		RollupConfigHash: gen.RollupConfig().Hash(),
		Status:           types.StatusRunning,
	}
	return result, nil
}
