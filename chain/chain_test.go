// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/rollupvm/config"
	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/generator/locks"
	"github.com/ava-labs/rollupvm/genesis"
	"github.com/ava-labs/rollupvm/mempool"
	"github.com/ava-labs/rollupvm/producer"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

const (
	aggregator uint32 = 2
	alice      uint32 = 3
	bob        uint32 = 4
)

func userScript(name string) *types.Script {
	return &types.Script{
		CodeHash: types.AlwaysSuccessCodeHash,
		HashType: types.HashTypeData,
		Args:     []byte(name),
	}
}

func transfer(from uint32, nonce uint32, to string, amount uint64) *types.L2Transaction {
	return &types.L2Transaction{
		Raw: types.RawL2Transaction{
			FromID: from,
			ToID:   types.CKBSUDTAccountID,
			Nonce:  nonce,
			Args: types.MustMarshal(&types.SUDTArgs{Call: &types.SUDTTransfer{
				To:     *userScript(to),
				Amount: amount,
			}}),
		},
	}
}

var initialDeposits = []types.DepositionRequest{
	{Script: *userScript("alice"), Amount: 500},
	{Script: *userScript("bob"), Amount: 100},
}

type testChain struct {
	chain *Chain
	store *store.Store
	gen   *generator.Generator
	pool  *mempool.Mempool
}

func newTestChain(t *testing.T) *testChain {
	require := require.New(t)

	s, err := store.Open(memdb.New())
	require.NoError(err)
	rollup := types.DefaultRollupConfig()
	require.NoError(genesis.InitGenesis(s, &config.GenesisConfig{
		InitialAggregatorScript: *userScript("aggregator"),
		InitialDeposition:       1000,
	}, rollup, types.HeaderInfo{}, ids.Empty))

	lockManage := generator.NewAccountLockManage()
	lockManage.Register(types.AlwaysSuccessCodeHash, locks.AlwaysSuccess{})
	gen := generator.New(generator.NewBackendManage(rollup), lockManage, ids.Empty, rollup)

	registry := prometheus.NewRegistry()
	pool, err := mempool.New(s, gen, log.New("module", "mempool"), registry)
	require.NoError(err)
	c, err := New(s, gen, pool, log.New("module", "chain"), registry)
	require.NoError(err)
	return &testChain{
		chain: c,
		store: s,
		gen:   gen,
		pool:  pool,
	}
}

// produce builds the next block on the tip without committing it.
func (tc *testChain) produce(t *testing.T, deposits []types.DepositionRequest, txs ...*types.L2Transaction) *producer.ProduceBlockResult {
	txn := tc.store.BeginTransaction()
	defer txn.Discard()

	result, err := producer.ProduceBlock(txn, tc.gen, &producer.ProduceBlockParam{
		ProducerID: aggregator,
		Timestamp:  100 + txn.BlockMerkleState().Count,
		Txs:        txs,
		Deposits:   deposits,
	})
	require.NoError(t, err)
	require.Empty(t, result.UnusedTransactions)
	return result
}

func submit(blk *types.L2Block, globalState *types.GlobalState, deposits []types.DepositionRequest) L1Action {
	return L1Action{
		Transaction: L1Transaction{
			Block:       types.MustMarshal(blk),
			GlobalState: types.MustMarshal(globalState),
		},
		HeaderInfo: types.HeaderInfo{Number: blk.Number()},
		Context:    &SubmitTxs{Deposits: deposits},
	}
}

func submitResult(result *producer.ProduceBlockResult) L1Action {
	return submit(result.Block, &result.GlobalState, result.Deposits)
}

func (tc *testChain) sync(t *testing.T, updates ...L1Action) *SyncEvent {
	event, err := tc.chain.Sync(&SyncParam{Updates: updates})
	require.NoError(t, err)
	return event
}

// setup applies a deposit block and a block with one transfer from alice.
func (tc *testChain) setup(t *testing.T) (*producer.ProduceBlockResult, *producer.ProduceBlockResult) {
	require := require.New(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	second := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)
	return first, second
}

func balanceAtTip(t *testing.T, s *store.Store, id uint32) uint64 {
	view, err := s.Checkout(s.TipVersion().ID)
	require.NoError(t, err)
	defer view.Discard()

	balance, err := state.GetBalance(view, types.CKBSUDTAccountID, id)
	require.NoError(t, err)
	return balance.Uint64()
}

func TestSyncSubmitTxs(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	event := tc.sync(t, submitResult(first))
	require.Equal(Success, event.Kind)
	require.Nil(event.Context)
	require.Equal(first.GlobalState, tc.chain.GlobalState())
	require.Equal(uint64(500), balanceAtTip(t, tc.store, alice))

	l1Info, err := tc.store.GetBlockL1Info(first.Block.Hash())
	require.NoError(err)
	require.Equal(uint64(1), l1Info.Header.Number)
	require.Len(l1Info.Deposits, 2)

	tx := transfer(alice, 0, "bob", 10)
	require.NoError(tc.pool.PushTransaction(tx))
	second := tc.produce(t, nil, tx)
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)

	tip := tc.store.TipVersion()
	require.Equal(second.Block.Hash(), tip.TipBlockHash)
	require.Equal(uint64(3), tip.BlockCount)
	require.Equal(uint64(490), balanceAtTip(t, tc.store, alice))
	require.Equal(uint64(110), balanceAtTip(t, tc.store, bob))
	// included transactions leave the pool
	require.Zero(tc.pool.Len())
}

func TestSyncInvalidParent(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	first.Block.Raw.ParentBlockHash = ids.GenerateTestID()
	_, err := tc.chain.Sync(&SyncParam{Updates: []L1Action{submitResult(first)}})
	require.ErrorIs(err, ErrInvalidParent)
}

func TestSyncBadBlock(t *testing.T) {
	tests := []struct {
		name       string
		tamper     func(*producer.ProduceBlockResult)
		targetType types.ChallengeTargetType
		index      uint32
		withReads  bool
	}{
		{
			name: "second checkpoint",
			tamper: func(r *producer.ProduceBlockResult) {
				r.Block.Raw.StateCheckpoints[1] = ids.GenerateTestID()
			},
			targetType: types.TargetTxExecution,
			index:      1,
			withReads:  true,
		},
		{
			name: "post account root",
			tamper: func(r *producer.ProduceBlockResult) {
				r.Block.Raw.PostAccount.Root = ids.GenerateTestID()
			},
			targetType: types.TargetBlock,
		},
		{
			name: "prev account count",
			tamper: func(r *producer.ProduceBlockResult) {
				r.Block.Raw.PrevAccount.Count++
			},
			targetType: types.TargetBlock,
		},
		{
			name: "tx count",
			tamper: func(r *producer.ProduceBlockResult) {
				r.Block.Raw.TxCount++
			},
			targetType: types.TargetBlock,
		},
		{
			name: "global state",
			tamper: func(r *producer.ProduceBlockResult) {
				r.GlobalState.Block.Count++
			},
			targetType: types.TargetBlock,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)
			tc := newTestChain(t)

			first := tc.produce(t, initialDeposits)
			require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
			tipBefore := tc.store.TipVersion()

			second := tc.produce(t, nil,
				transfer(alice, 0, "bob", 10),
				transfer(alice, 1, "carol", 20),
			)
			test.tamper(second)
			event := tc.sync(t, submitResult(second))
			require.Equal(BadBlock, event.Kind)
			require.NotNil(event.Context)

			target := event.Context.Target
			require.Equal(second.Block.Hash(), target.BlockHash)
			require.Equal(uint64(2), target.BlockNumber)
			require.Equal(test.targetType, target.TargetType)
			require.Equal(test.index, target.TargetIndex)
			require.Equal(second.Block.Hash(), event.Context.Witness.RawBlock.Hash())
			if test.withReads {
				require.NotEmpty(event.Context.Witness.KVState)
			}

			// nothing was committed
			require.Equal(tipBefore, tc.store.TipVersion())
			_, err := tc.store.GetBlock(second.Block.Hash())
			require.ErrorIs(err, store.ErrBlockNotFound)
		})
	}
}

func TestSyncStopsAtBadBlock(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)

	bad := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	bad.Block.Raw.PostAccount.Root = ids.GenerateTestID()
	good := tc.produce(t, nil, transfer(alice, 0, "bob", 10))

	event := tc.sync(t, submitResult(bad), submitResult(good))
	require.Equal(BadBlock, event.Kind)
	require.Equal(first.Block.Hash(), tc.store.TipVersion().TipBlockHash)

	// blocks on top of the bad block are not executed
	event = tc.sync(t, submitResult(good))
	require.Equal(BadBlock, event.Kind)
	require.Equal(bad.Block.Hash(), event.Context.Target.BlockHash)

	// once the bad block is reverted the chain follows again
	event, err := tc.chain.Sync(&SyncParam{
		Reverts: []L1Action{submitResult(bad)},
		Updates: []L1Action{submitResult(good)},
	})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Equal(good.Block.Hash(), tc.store.TipVersion().TipBlockHash)
}

func TestSyncRevert(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	afterFirst := tc.store.TipVersion()
	second := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)

	revert := &SyncParam{Reverts: []L1Action{submitResult(second)}}
	event, err := tc.chain.Sync(revert)
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Equal(afterFirst, tc.store.TipVersion())
	require.Equal(first.GlobalState, tc.chain.GlobalState())
	require.Equal(uint64(500), balanceAtTip(t, tc.store, alice))

	// the block is still known but no longer canonical, so a second revert
	// does nothing
	_, err = tc.store.GetBlock(second.Block.Hash())
	require.NoError(err)
	_, err = tc.chain.Sync(revert)
	require.NoError(err)
	require.Equal(afterFirst, tc.store.TipVersion())

	// the same block applies again
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)
	require.Equal(second.GlobalState, tc.chain.GlobalState())
}

func TestSyncRevertTwoBlocks(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	genesisTip := tc.store.TipVersion()
	first, second := tc.setup(t)

	event, err := tc.chain.Sync(&SyncParam{
		Reverts: []L1Action{submitResult(first), submitResult(second)},
	})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Equal(genesisTip, tc.store.TipVersion())
}

// cancelWitness proves transaction [index] of [blk] on the given parent
// version.
func (tc *testChain) cancelWitness(t *testing.T, parent uint64, blk *types.L2Block, index int) types.ChallengeWitness {
	fork, err := tc.store.Fork(parent)
	require.NoError(t, err)
	defer fork.Discard()

	info := blk.Info()
	for i := 0; i < index; i++ {
		run, err := tc.gen.Execute(fork, info, &blk.Transactions[i])
		require.NoError(t, err)
		require.NoError(t, generator.ApplyRunResult(fork, run))
	}
	run, err := tc.gen.Execute(fork, info, &blk.Transactions[index])
	require.NoError(t, err)
	return types.ChallengeWitness{
		RawBlock: blk.Raw,
		KVState:  run.ReadKVs(),
	}
}

func challengeAction(target types.ChallengeTarget) L1Action {
	return L1Action{Context: &Challenge{Target: target}}
}

func cancelAction(target types.ChallengeTarget, witness types.ChallengeWitness) L1Action {
	return L1Action{Context: &CancelChallenge{Target: target, Witness: witness}}
}

func txTarget(blk *types.L2Block, index uint32) types.ChallengeTarget {
	return types.ChallengeTarget{
		BlockHash:   blk.Hash(),
		BlockNumber: blk.Number(),
		TargetIndex: index,
		TargetType:  types.TargetTxExecution,
	}
}

func TestChallengeAndCancel(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	afterFirst := tc.store.TipVersion()
	second := tc.produce(t, nil,
		transfer(alice, 0, "bob", 10),
		transfer(alice, 1, "carol", 20),
	)
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)

	target := txTarget(second.Block, 1)
	event := tc.sync(t, challengeAction(target))
	require.Equal(WaitChallenge, event.Kind)
	require.Equal(target, event.Context.Target)
	require.Equal(types.StatusHalting, tc.chain.GlobalState().Status)
	require.Len(tc.chain.OpenChallenges(), 1)

	// the challenge stays open across batches
	require.Equal(WaitChallenge, tc.sync(t).Kind)

	witness := tc.cancelWitness(t, afterFirst.ID, second.Block, 1)
	event = tc.sync(t, cancelAction(target, witness))
	require.Equal(Success, event.Kind)
	require.Equal(types.StatusRunning, tc.chain.GlobalState().Status)
	require.Empty(tc.chain.OpenChallenges())
	require.Equal(second.Block.Hash(), tc.store.TipVersion().TipBlockHash)
}

func TestCancelBlockAndSignatureTargets(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	_, second := tc.setup(t)

	for _, targetType := range []types.ChallengeTargetType{types.TargetBlock, types.TargetTxSignature} {
		target := types.ChallengeTarget{
			BlockHash:   second.Block.Hash(),
			BlockNumber: second.Block.Number(),
			TargetType:  targetType,
		}
		require.Equal(WaitChallenge, tc.sync(t, challengeAction(target)).Kind)
		event := tc.sync(t, cancelAction(target, types.ChallengeWitness{RawBlock: second.Block.Raw}))
		require.Equal(Success, event.Kind, targetType.String())
	}
}

func TestInvalidCancel(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	_, second := tc.setup(t)

	target := txTarget(second.Block, 0)
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(target)).Kind)

	// the witness does not cover the reads of the transaction
	event := tc.sync(t, cancelAction(target, types.ChallengeWitness{RawBlock: second.Block.Raw}))
	require.Equal(BadChallenge, event.Kind)
	require.Equal(target, event.Context.Target)
	require.Empty(tc.chain.OpenChallenges())
}

func TestCancelDisprovedTarget(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	afterFirst := tc.store.TipVersion()

	bad := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	witness := tc.cancelWitness(t, afterFirst.ID, bad.Block, 0)
	bad.Block.Raw.StateCheckpoints[0] = ids.GenerateTestID()
	witness.RawBlock = bad.Block.Raw

	event := tc.sync(t, submitResult(bad))
	require.Equal(BadBlock, event.Kind)
	target := event.Context.Target
	require.Equal(types.TargetTxExecution, target.TargetType)

	// challenging the bad block is a valid challenge
	event = tc.sync(t, challengeAction(target))
	require.Equal(WaitChallenge, event.Kind)

	// the checkpoint does not match execution, so no proof cancels it
	event = tc.sync(t, cancelAction(target, witness))
	require.Equal(BadChallenge, event.Kind)
}

func TestBadChallenge(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	_, second := tc.setup(t)

	outOfRange := txTarget(second.Block, 1)
	event := tc.sync(t, challengeAction(outOfRange))
	require.Equal(BadChallenge, event.Kind)
	require.Equal(outOfRange, event.Context.Target)

	wrongNumber := txTarget(second.Block, 0)
	wrongNumber.BlockNumber++
	require.Equal(BadChallenge, tc.sync(t, challengeAction(wrongNumber)).Kind)

	_, err := tc.chain.Sync(&SyncParam{Reverts: []L1Action{submitResult(second)}})
	require.NoError(err)
	nonCanonical := txTarget(second.Block, 0)
	require.Equal(BadChallenge, tc.sync(t, challengeAction(nonCanonical)).Kind)
	require.Empty(tc.chain.OpenChallenges())
}

func TestSyncFatalErrors(t *testing.T) {
	tc := newTestChain(t)
	_, second := tc.setup(t)

	unknown := txTarget(second.Block, 0)
	unknown.BlockHash = ids.GenerateTestID()

	tests := []struct {
		name        string
		param       *SyncParam
		expectedErr error
	}{
		{
			name:        "challenge of unknown block",
			param:       &SyncParam{Updates: []L1Action{challengeAction(unknown)}},
			expectedErr: ErrUnknownBlock,
		},
		{
			name: "cancel without challenge",
			param: &SyncParam{Updates: []L1Action{
				cancelAction(txTarget(second.Block, 0), types.ChallengeWitness{}),
			}},
			expectedErr: ErrNoOpenChallenge,
		},
		{
			name: "revert in updates",
			param: &SyncParam{Updates: []L1Action{
				{Context: &Revert{Target: txTarget(second.Block, 0)}},
			}},
			expectedErr: ErrRevertInUpdates,
		},
		{
			name: "malformed block",
			param: &SyncParam{Updates: []L1Action{
				{Transaction: L1Transaction{Block: []byte{1, 2, 3}}, Context: &SubmitTxs{}},
			}},
			expectedErr: ErrMalformedAction,
		},
		{
			name:        "missing context",
			param:       &SyncParam{Updates: []L1Action{{}}},
			expectedErr: ErrUnknownAction,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := tc.chain.Sync(test.param)
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestRevertChallengeActions(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	_, second := tc.setup(t)

	target := txTarget(second.Block, 0)
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(target)).Kind)

	// the challenge was on a discarded L1 fork
	event, err := tc.chain.Sync(&SyncParam{Reverts: []L1Action{challengeAction(target)}})
	require.NoError(err)
	require.Equal(Success, event.Kind)

	// undoing a cancel re-opens the challenge
	witness := types.ChallengeWitness{RawBlock: second.Block.Raw}
	event, err = tc.chain.Sync(&SyncParam{Reverts: []L1Action{cancelAction(target, witness)}})
	require.NoError(err)
	require.Equal(WaitChallenge, event.Kind)
	require.Equal(target, event.Context.Target)
}

func TestRevertAction(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first, second := tc.setup(t)
	target := txTarget(second.Block, 0)
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(target)).Kind)

	event, err := tc.chain.Sync(&SyncParam{
		Reverts: []L1Action{{Context: &Revert{Target: target}}},
	})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Equal(first.Block.Hash(), tc.store.TipVersion().TipBlockHash)
	require.Equal(types.StatusRunning, tc.chain.GlobalState().Status)
}

func TestRevertReleasesLaterChallenges(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	first, second := tc.setup(t)

	later := txTarget(second.Block, 0)
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(later)).Kind)
	earlier := types.ChallengeTarget{
		BlockHash:   first.Block.Hash(),
		BlockNumber: first.Block.Number(),
		TargetType:  types.TargetBlock,
	}
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(earlier)).Kind)
	require.Len(tc.chain.OpenChallenges(), 2)

	// rolling back the first block orphans the second one and its challenge
	event, err := tc.chain.Sync(&SyncParam{
		Reverts: []L1Action{{Context: &Revert{Target: earlier}}},
	})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Empty(tc.chain.OpenChallenges())
	require.Equal(types.StatusRunning, tc.chain.GlobalState().Status)
	require.Equal(uint64(1), tc.store.TipVersion().BlockCount)
}

func TestRevertBadBlockReleasesChallenge(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	bad := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	bad.Block.Raw.PostAccount.Root = ids.GenerateTestID()

	event := tc.sync(t, submitResult(bad))
	require.Equal(BadBlock, event.Kind)
	require.Equal(WaitChallenge, tc.sync(t, challengeAction(event.Context.Target)).Kind)

	event, err := tc.chain.Sync(&SyncParam{Reverts: []L1Action{submitResult(bad)}})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.Empty(tc.chain.OpenChallenges())
	require.Equal(first.Block.Hash(), tc.store.TipVersion().TipBlockHash)
}

func TestSyncErrorRefreshesMempool(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	orphan := tc.produce(t, nil)
	_, err := tc.chain.Sync(&SyncParam{
		Updates: []L1Action{submitResult(first), submitResult(orphan)},
	})
	require.ErrorIs(err, ErrInvalidParent)
	require.Equal(first.Block.Hash(), tc.store.TipVersion().TipBlockHash)

	// alice only exists after the first block
	require.NoError(tc.pool.PushTransaction(transfer(alice, 0, "bob", 10)))
}

func TestSyncSkipsRejectedDeposit(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)
	tc.gen.RollupConfig().AllowedEOALockCodeHashes = []ids.ID{types.AlwaysSuccessCodeHash}

	stranger := types.DepositionRequest{
		Script: types.Script{CodeHash: ids.ID{9}, Args: []byte("stranger")},
		Amount: 20,
	}
	first := tc.produce(t, append([]types.DepositionRequest{stranger}, initialDeposits...))
	require.Equal([]types.DepositionRequest{stranger}, first.UnusedDeposits)
	require.Equal(Success, tc.sync(t, submitResult(first)).Kind)
	require.Equal(uint64(500), balanceAtTip(t, tc.store, alice))

	second := tc.produce(t, nil, transfer(alice, 0, "bob", 10))
	require.Equal(Success, tc.sync(t, submitResult(second)).Kind)
}

func TestNextBlockContext(t *testing.T) {
	require := require.New(t)
	tc := newTestChain(t)

	first := tc.produce(t, initialDeposits)
	event, err := tc.chain.Sync(&SyncParam{
		Updates:          []L1Action{submitResult(first)},
		NextBlockContext: &types.BlockInfo{ProducerID: aggregator, Number: 2, Timestamp: 200},
	})
	require.NoError(err)
	require.Equal(Success, event.Kind)
	require.NoError(tc.pool.PushTransaction(transfer(alice, 0, "bob", 10)))
	require.Equal(1, tc.pool.Len())
}
