// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

// replay re-executes the entries of [blk] on [txn], which must hold the state
// the entries run on. Every successful entry is applied.
type replay struct {
	gen  *generator.Generator
	txn  *store.Transaction
	blk  *types.L2Block
	info types.BlockInfo
}

func newReplay(gen *generator.Generator, txn *store.Transaction, blk *types.L2Block) *replay {
	return &replay{
		gen:  gen,
		txn:  txn,
		blk:  blk,
		info: blk.Info(),
	}
}

func (r *replay) apply(run *generator.RunResult) (ids.ID, error) {
	if err := generator.ApplyRunResult(r.txn, run); err != nil {
		return ids.Empty, err
	}
	return r.txn.CalculateRoot()
}

func (r *replay) withdrawal(i int) (*generator.RunResult, ids.ID, error) {
	run, err := r.gen.ExecuteWithdrawal(r.txn, r.info, &r.blk.Withdrawals[i])
	if err != nil {
		return nil, ids.Empty, err
	}
	root, err := r.apply(run)
	return run, root, err
}

func (r *replay) tx(i int) (*generator.RunResult, ids.ID, error) {
	run, err := r.gen.Execute(r.txn, r.info, &r.blk.Transactions[i])
	if err != nil {
		return nil, ids.Empty, err
	}
	root, err := r.apply(run)
	return run, root, err
}

// wellFormed checks the fields of the block that do not need execution.
func wellFormed(blk *types.L2Block, blockCount uint64) bool {
	raw := &blk.Raw
	if raw.Number != blockCount ||
		int(raw.TxCount) != len(blk.Transactions) ||
		int(raw.WithdrawalCount) != len(blk.Withdrawals) ||
		len(raw.StateCheckpoints) != len(blk.Transactions)+len(blk.Withdrawals) {
		return false
	}

	txWitness := make([]ids.ID, len(blk.Transactions))
	for i := range blk.Transactions {
		txWitness[i] = blk.Transactions[i].WitnessHash()
	}
	withdrawalWitness := make([]ids.ID, len(blk.Withdrawals))
	for i := range blk.Withdrawals {
		withdrawalWitness[i] = blk.Withdrawals[i].WitnessHash()
	}
	return raw.TxWitnessRoot == types.MerkleRoot(txWitness) &&
		raw.WithdrawalWitnessRoot == types.MerkleRoot(withdrawalWitness)
}

func badTarget(blk *types.L2Block, targetType types.ChallengeTargetType, index int, reads []types.KVPair) *types.ChallengeContext {
	return &types.ChallengeContext{
		Target: types.ChallengeTarget{
			BlockHash:   blk.Hash(),
			BlockNumber: blk.Number(),
			TargetIndex: uint32(index),
			TargetType:  targetType,
		},
		Witness: types.ChallengeWitness{
			RawBlock: blk.Raw,
			KVState:  reads,
		},
	}
}

// txTargetType tells whether a rejected transaction is disputed for its
// signature or its execution.
func txTargetType(err error) types.ChallengeTargetType {
	switch generator.KindOf(err) {
	case generator.AuthenticationFailed, generator.UnknownLockScript:
		return types.TargetTxSignature
	default:
		return types.TargetTxExecution
	}
}

// verifyBlock re-executes [blk] on [txn], which holds the parent state, and
// compares every checkpoint. It returns the challenge for the first
// divergence, or nil if the block matches. Only store failures are returned
// as errors.
func (c *Chain) verifyBlock(txn *store.Transaction, blk *types.L2Block, deposits []types.DepositionRequest) (*types.ChallengeContext, error) {
	prevAccount, err := state.GetMerkleState(txn)
	if err != nil {
		return nil, err
	}
	if prevAccount != blk.Raw.PrevAccount || !wellFormed(blk, txn.BlockMerkleState().Count) {
		return badTarget(blk, types.TargetBlock, 0, nil), nil
	}

	r := newReplay(c.gen, txn, blk)
	for i := range blk.Withdrawals {
		run, root, err := r.withdrawal(i)
		if generator.IsRejection(err) {
			c.log.Debug("withdrawal rejected on replay", "block", blk.Hash(), "index", i, "reason", err)
			return badTarget(blk, types.TargetWithdrawal, i, nil), nil
		}
		if err != nil {
			return nil, err
		}
		if checkpoint, _ := blk.Raw.WithdrawalCheckpoint(i); root != checkpoint {
			return badTarget(blk, types.TargetWithdrawal, i, run.ReadKVs()), nil
		}
	}

	rejected, err := c.gen.ApplyDeposits(txn, deposits)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		c.log.Debug("deposits skipped on replay", "block", blk.Hash(), "skipped", len(rejected))
	}

	for i := range blk.Transactions {
		run, root, err := r.tx(i)
		if generator.IsRejection(err) {
			c.log.Debug("transaction rejected on replay", "block", blk.Hash(), "index", i, "reason", err)
			return badTarget(blk, txTargetType(err), i, nil), nil
		}
		if err != nil {
			return nil, err
		}
		if checkpoint, _ := blk.Raw.TxCheckpoint(i); root != checkpoint {
			return badTarget(blk, types.TargetTxExecution, i, run.ReadKVs()), nil
		}
	}

	postAccount, err := state.GetMerkleState(txn)
	if err != nil {
		return nil, err
	}
	if postAccount != blk.Raw.PostAccount {
		return badTarget(blk, types.TargetBlock, 0, nil), nil
	}
	return nil, nil
}

// targetInRange reports whether [target] names an entry of [blk].
func targetInRange(blk *types.L2Block, target types.ChallengeTarget) bool {
	if target.BlockNumber != blk.Number() {
		return false
	}
	switch target.TargetType {
	case types.TargetTxExecution, types.TargetTxSignature:
		return target.TargetIndex < blk.Raw.TxCount
	case types.TargetWithdrawal:
		return target.TargetIndex < blk.Raw.WithdrawalCount
	case types.TargetBlock:
		return target.TargetIndex == 0
	default:
		return false
	}
}

// covers reports whether [kvState] holds every read of [run] with the value
// that was read.
func covers(kvState []types.KVPair, run *generator.RunResult) bool {
	provided := make(map[ids.ID]ids.ID, len(kvState))
	for _, kv := range kvState {
		provided[kv.Key] = kv.Value
	}
	for key, value := range run.ReadValues {
		got, ok := provided[key]
		if !ok || got != value {
			return false
		}
	}
	return true
}

// verifyCancel re-executes the disputed entry on the state before the block
// and reports whether [witness] proves the committed transition.
func (c *Chain) verifyCancel(target types.ChallengeTarget, witness *types.ChallengeWitness) (bool, error) {
	record, err := c.lookupBlock(target.BlockHash)
	if err != nil {
		return false, err
	}
	blk := record.blk
	if witness.RawBlock.Hash() != target.BlockHash || !targetInRange(blk, target) {
		return false, nil
	}

	txn, err := c.store.Fork(record.parent)
	if err != nil {
		return false, err
	}
	defer txn.Discard()

	if target.TargetType == types.TargetBlock {
		bad, err := c.verifyBlock(txn, blk, record.deposits)
		return bad == nil, err
	}

	index := int(target.TargetIndex)
	r := newReplay(c.gen, txn, blk)
	for i := range blk.Withdrawals {
		run, root, err := r.withdrawal(i)
		switch {
		case generator.IsRejection(err):
			return false, nil
		case err != nil:
			return false, err
		}
		if target.TargetType == types.TargetWithdrawal && i == index {
			checkpoint, _ := blk.Raw.WithdrawalCheckpoint(i)
			return root == checkpoint && covers(witness.KVState, run), nil
		}
	}

	if _, err := c.gen.ApplyDeposits(txn, record.deposits); err != nil {
		return false, err
	}

	for i := 0; i < index; i++ {
		_, _, err := r.tx(i)
		switch {
		case generator.IsRejection(err):
			return false, nil
		case err != nil:
			return false, err
		}
	}

	if target.TargetType == types.TargetTxSignature {
		err := c.gen.VerifyTransaction(txn, &blk.Transactions[index])
		if generator.IsRejection(err) {
			return false, nil
		}
		return err == nil, err
	}

	run, root, err := r.tx(index)
	switch {
	case generator.IsRejection(err):
		return false, nil
	case err != nil:
		return false, err
	}
	checkpoint, _ := blk.Raw.TxCheckpoint(index)
	return root == checkpoint && covers(witness.KVState, run), nil
}
