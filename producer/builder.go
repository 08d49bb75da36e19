// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package producer

import (
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/mempool"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

// Producer builds blocks on the store tip from a mempool snapshot.
type Producer struct {
	clock *mockable.Clock

	store   *store.Store
	gen     *generator.Generator
	mempool *mempool.Mempool
	log     log.Logger

	producerID            uint32
	maxWithdrawalCapacity uint64
}

func New(
	clock *mockable.Clock,
	s *store.Store,
	gen *generator.Generator,
	pool *mempool.Mempool,
	producerID uint32,
	maxWithdrawalCapacity uint64,
	logger log.Logger,
) *Producer {
	return &Producer{
		clock:                 clock,
		store:                 s,
		gen:                   gen,
		mempool:               pool,
		log:                   logger,
		producerID:            producerID,
		maxWithdrawalCapacity: maxWithdrawalCapacity,
	}
}

// Produce builds the next block without committing it. An account with
// pending transactions contributes only them; withdrawals wait for a block
// where the account has no pending transactions. Entries that failed are
// dropped from the mempool.
func (p *Producer) Produce(deposits []types.DepositionRequest) (*ProduceBlockResult, error) {
	param := &ProduceBlockParam{
		ProducerID:            p.producerID,
		Deposits:              deposits,
		MaxWithdrawalCapacity: p.maxWithdrawalCapacity,
	}
	for _, entry := range p.mempool.Pending() {
		if len(entry.Txs) > 0 {
			param.Txs = append(param.Txs, entry.Txs...)
			continue
		}
		param.Withdrawals = append(param.Withdrawals, entry.Withdrawals...)
	}

	txn := p.store.BeginTransaction()
	defer txn.Discard()

	param.Timestamp = uint64(p.clock.Time().Unix())
	if txn.BlockMerkleState().Count > 0 {
		parent, err := txn.GetBlock(txn.TipBlockHash())
		if err != nil {
			return nil, err
		}
		if parent.Raw.Timestamp > param.Timestamp {
			param.Timestamp = parent.Raw.Timestamp
		}
	}

	result, err := ProduceBlock(txn, p.gen, param)
	if err != nil {
		return nil, err
	}
	if err := p.mempool.Drop(result.UnusedTransactions, result.UnusedWithdrawals); err != nil {
		return nil, err
	}

	p.log.Info("produced block",
		"number", result.Block.Number(),
		"hash", result.Block.Hash(),
		"txs", len(result.Block.Transactions),
		"withdrawals", len(result.Block.Withdrawals),
		"deposits", len(deposits),
		"unusedTxs", len(result.UnusedTransactions),
		"unusedWithdrawals", len(result.UnusedWithdrawals),
		"unusedDeposits", len(result.UnusedDeposits),
		"deferredWithdrawals", len(result.DeferredWithdrawals),
	)
	return result, nil
}
