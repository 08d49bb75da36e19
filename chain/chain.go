// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain follows the rollup on L1: it applies submitted blocks after
// re-executing them, tracks challenges and rolls back reverted blocks.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/mempool"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

var (
	ErrInvalidParent   = errors.New("submitted block does not extend the tip")
	ErrUnknownBlock    = errors.New("challenged block is unknown")
	ErrNoOpenChallenge = errors.New("no open challenge for target")
	ErrRevertInUpdates = errors.New("revert action in updates")
	ErrUnknownAction   = errors.New("unknown L1 action")
	ErrMalformedAction = errors.New("malformed L1 action")
)

// blockRecord is a block with what is needed to re-execute it.
type blockRecord struct {
	blk      *types.L2Block
	deposits []types.DepositionRequest
	// version holding the parent state
	parent uint64
}

// badBlock is a submitted block that failed verification. It is never
// committed; its descendants are not executed until it is reverted.
type badBlock struct {
	blockRecord
	challenge *types.ChallengeContext
}

type Chain struct {
	lock sync.Mutex

	store   *store.Store
	gen     *generator.Generator
	pool    *mempool.Mempool
	log     log.Logger
	metrics *metrics

	// open challenges, oldest first
	challenges []*types.ChallengeContext
	bad        *badBlock
}

// New returns a chain following the tip of [s]. [pool] may be nil.
func New(
	s *store.Store,
	gen *generator.Generator,
	pool *mempool.Mempool,
	logger log.Logger,
	registerer prometheus.Registerer,
) (*Chain, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Chain{
		store:   s,
		gen:     gen,
		pool:    pool,
		log:     logger,
		metrics: m,
	}, nil
}

func (c *Chain) Store() *store.Store { return c.store }

func (c *Chain) Generator() *generator.Generator { return c.gen }

// GlobalState returns the commitment to the tip. The rollup is halting
// while a challenge is open.
func (c *Chain) GlobalState() types.GlobalState {
	c.lock.Lock()
	defer c.lock.Unlock()

	tip := c.store.TipVersion()
	status := types.StatusRunning
	if len(c.challenges) > 0 {
		status = types.StatusHalting
	}
	return types.GlobalState{
		Account:          tip.AccountMerkleState(),
		Block:            tip.BlockMerkleState(),
		TipBlockHash:     tip.TipBlockHash,
		RollupConfigHash: c.gen.RollupConfig().Hash(),
		Status:           status,
	}
}

// OpenChallenges returns the open challenges, oldest first.
func (c *Chain) OpenChallenges() []types.ChallengeContext {
	c.lock.Lock()
	defer c.lock.Unlock()

	challenges := make([]types.ChallengeContext, len(c.challenges))
	for i, challenge := range c.challenges {
		challenges[i] = *challenge
	}
	return challenges
}

// Sync applies one batch of L1 changes. Reverts are applied first, then
// updates in order until one of them yields a bad block or a bad challenge.
// An error means the local state can no longer follow L1.
func (c *Chain) Sync(param *SyncParam) (event *SyncEvent, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	tipBefore := c.store.TipVersion().ID
	defer func() {
		if err == nil {
			return
		}
		// actions before the failure may have moved the tip
		if notifyErr := c.notifyPool(tipBefore); notifyErr != nil {
			c.log.Error("failed to refresh mempool", "error", notifyErr)
		}
	}()

	for i := range param.Reverts {
		if err := c.revert(&param.Reverts[i]); err != nil {
			return nil, err
		}
	}

	event = &SyncEvent{Kind: Success}
	for i := range param.Updates {
		bad, err := c.update(&param.Updates[i])
		if err != nil {
			return nil, err
		}
		if bad != nil {
			event = bad
			break
		}
	}
	if event.Kind == Success && len(c.challenges) > 0 {
		event = &SyncEvent{
			Kind:    WaitChallenge,
			Context: c.challenges[len(c.challenges)-1],
		}
	}

	if err := c.notifyPool(tipBefore); err != nil {
		return nil, err
	}
	if c.pool != nil && param.NextBlockContext != nil {
		if err := c.pool.SetNextBlockContext(*param.NextBlockContext); err != nil {
			return nil, err
		}
	}

	c.metrics.syncEvents.WithLabelValues(event.Kind.String()).Inc()
	c.log.Debug("synced",
		"reverts", len(param.Reverts),
		"updates", len(param.Updates),
		"event", event.Kind,
		"tip", c.store.TipVersion().TipBlockHash,
	)
	return event, nil
}

// notifyPool rebuilds the mempool when the tip moved since [tipBefore].
func (c *Chain) notifyPool(tipBefore uint64) error {
	if c.pool == nil || c.store.TipVersion().ID == tipBefore {
		return nil
	}
	return c.pool.NotifyNewTip()
}

func (c *Chain) revert(action *L1Action) error {
	switch ctx := action.Context.(type) {
	case *SubmitTxs:
		blk, err := types.ParseBlock(action.Transaction.Block)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedAction, err)
		}
		return c.rollbackBefore(blk.Hash())
	case *Challenge:
		c.removeChallenge(ctx.Target)
		return nil
	case *CancelChallenge:
		c.addChallenge(&types.ChallengeContext{
			Target:  ctx.Target,
			Witness: ctx.Witness,
		})
		return nil
	case *Revert:
		c.removeChallenge(ctx.Target)
		return c.rollbackBefore(ctx.Target.BlockHash)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action.Context)
	}
}

// rollbackBefore moves the tip to the state before [blkID] when the block is
// canonical. It never moves the tip forward. Challenges on the removed blocks
// are released.
func (c *Chain) rollbackBefore(blkID ids.ID) error {
	if c.bad != nil && c.bad.blk.Hash() == blkID {
		c.log.Info("dropping bad block", "hash", blkID)
		c.releaseChallengesFrom(c.bad.blk.Number())
		c.bad = nil
		return nil
	}

	versionID, err := c.store.GetBlockVersion(blkID)
	if errors.Is(err, store.ErrBlockNotFound) {
		c.log.Debug("skipping rollback of unknown block", "hash", blkID)
		return nil
	}
	if err != nil {
		return err
	}
	version, err := c.store.GetVersion(versionID)
	if err != nil {
		return err
	}

	number := version.BlockCount - 1
	canonical, err := c.isCanonical(blkID, number)
	if err != nil {
		return err
	}
	if !canonical {
		c.log.Debug("skipping rollback of non canonical block", "hash", blkID)
		return nil
	}
	if err := c.store.RevertTo(version.Parent); err != nil {
		return err
	}
	// descendants and the bad block are gone too
	c.bad = nil
	c.releaseChallengesFrom(number)

	c.metrics.blocksReverted.Inc()
	c.log.Info("rolled back block",
		"hash", blkID,
		"number", number,
		"version", version.Parent,
	)
	return nil
}

func (c *Chain) isCanonical(blkID ids.ID, number uint64) (bool, error) {
	view, err := c.store.Checkout(c.store.TipVersion().ID)
	if err != nil {
		return false, err
	}
	defer view.Discard()

	canonicalID, ok, err := view.GetBlockHashByNumber(number)
	if err != nil {
		return false, err
	}
	return ok && canonicalID == blkID, nil
}

func (c *Chain) update(action *L1Action) (*SyncEvent, error) {
	switch ctx := action.Context.(type) {
	case *SubmitTxs:
		return c.submitTxs(action, ctx)
	case *Challenge:
		return c.challenge(ctx.Target)
	case *CancelChallenge:
		return c.cancelChallenge(ctx)
	case *Revert:
		return nil, ErrRevertInUpdates
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, action.Context)
	}
}

func (c *Chain) submitTxs(action *L1Action, ctx *SubmitTxs) (*SyncEvent, error) {
	blk, err := types.ParseBlock(action.Transaction.Block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	globalState := types.GlobalState{}
	if err := types.Unmarshal(action.Transaction.GlobalState, &globalState); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	blkID := blk.Hash()

	if c.bad != nil {
		c.log.Warn("skipping block built on a bad block",
			"hash", blkID,
			"badBlock", c.bad.blk.Hash(),
		)
		return &SyncEvent{Kind: BadBlock, Context: c.bad.challenge}, nil
	}

	tip := c.store.TipVersion()
	if blk.Raw.ParentBlockHash != tip.TipBlockHash {
		return nil, fmt.Errorf("%w: block %s has parent %s, tip is %s",
			ErrInvalidParent, blkID, blk.Raw.ParentBlockHash, tip.TipBlockHash)
	}

	txn := c.store.BeginTransaction()
	defer txn.Discard()

	challenge, err := c.verifyBlock(txn, blk, ctx.Deposits)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		if err := txn.InsertBlock(blk, &store.BlockL1Info{
			Header:   action.HeaderInfo,
			Deposits: ctx.Deposits,
		}); err != nil {
			return nil, err
		}
		expected := types.GlobalState{
			Account:          blk.Raw.PostAccount,
			Block:            txn.BlockMerkleState(),
			TipBlockHash:     blkID,
			RollupConfigHash: c.gen.RollupConfig().Hash(),
			Status:           globalState.Status,
		}
		if globalState != expected {
			challenge = badTarget(blk, types.TargetBlock, 0, nil)
		}
	}
	if challenge != nil {
		c.bad = &badBlock{
			blockRecord: blockRecord{
				blk:      blk,
				deposits: ctx.Deposits,
				parent:   tip.ID,
			},
			challenge: challenge,
		}
		c.log.Warn("bad block", "hash", blkID, "number", blk.Number(), "target", challenge.Target)
		return &SyncEvent{Kind: BadBlock, Context: challenge}, nil
	}

	version, err := txn.Commit()
	if err != nil {
		return nil, err
	}
	c.metrics.blocksApplied.Inc()
	c.log.Info("applied block",
		"hash", blkID,
		"number", blk.Number(),
		"txs", len(blk.Transactions),
		"withdrawals", len(blk.Withdrawals),
		"deposits", len(ctx.Deposits),
		"version", version,
	)
	return nil, nil
}

// lookupBlock finds a committed block or the pending bad block.
func (c *Chain) lookupBlock(blkID ids.ID) (*blockRecord, error) {
	if c.bad != nil && c.bad.blk.Hash() == blkID {
		return &c.bad.blockRecord, nil
	}

	blk, err := c.store.GetBlock(blkID)
	if errors.Is(err, store.ErrBlockNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, blkID)
	}
	if err != nil {
		return nil, err
	}
	l1Info, err := c.store.GetBlockL1Info(blkID)
	if err != nil {
		return nil, err
	}
	versionID, err := c.store.GetBlockVersion(blkID)
	if err != nil {
		return nil, err
	}
	version, err := c.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	return &blockRecord{
		blk:      blk,
		deposits: l1Info.Deposits,
		parent:   version.Parent,
	}, nil
}

func (c *Chain) challenge(target types.ChallengeTarget) (*SyncEvent, error) {
	record, err := c.lookupBlock(target.BlockHash)
	if err != nil {
		return nil, err
	}
	blk := record.blk

	canonical := c.bad != nil && c.bad.blk == blk
	if !canonical {
		canonical, err = c.isCanonical(target.BlockHash, blk.Number())
		if err != nil {
			return nil, err
		}
	}
	challenge := &types.ChallengeContext{
		Target:  target,
		Witness: types.ChallengeWitness{RawBlock: blk.Raw},
	}
	if !canonical || !targetInRange(blk, target) {
		c.log.Warn("bad challenge", "target", target, "canonical", canonical)
		return &SyncEvent{Kind: BadChallenge, Context: challenge}, nil
	}

	c.addChallenge(challenge)
	c.log.Warn("challenge opened", "target", target)
	return nil, nil
}

func (c *Chain) cancelChallenge(ctx *CancelChallenge) (*SyncEvent, error) {
	if c.findChallenge(ctx.Target) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoOpenChallenge, ctx.Target)
	}
	// the challenge is closed on L1 whatever the proof is worth
	c.removeChallenge(ctx.Target)

	valid, err := c.verifyCancel(ctx.Target, &ctx.Witness)
	if err != nil {
		return nil, err
	}
	if !valid {
		c.log.Warn("challenge cancelled with an invalid proof", "target", ctx.Target)
		return &SyncEvent{
			Kind: BadChallenge,
			Context: &types.ChallengeContext{
				Target:  ctx.Target,
				Witness: ctx.Witness,
			},
		}, nil
	}
	c.log.Info("challenge cancelled", "target", ctx.Target)
	return nil, nil
}

func (c *Chain) findChallenge(target types.ChallengeTarget) int {
	for i, challenge := range c.challenges {
		if challenge.Target == target {
			return i
		}
	}
	return -1
}

func (c *Chain) addChallenge(challenge *types.ChallengeContext) {
	if i := c.findChallenge(challenge.Target); i >= 0 {
		c.challenges[i] = challenge
		return
	}
	c.challenges = append(c.challenges, challenge)
}

// releaseChallengesFrom drops the challenges on block [number] and above.
func (c *Chain) releaseChallengesFrom(number uint64) {
	open := c.challenges[:0]
	for _, challenge := range c.challenges {
		if challenge.Target.BlockNumber < number {
			open = append(open, challenge)
			continue
		}
		c.log.Info("challenge released", "target", challenge.Target)
	}
	c.challenges = open
}

func (c *Chain) removeChallenge(target types.ChallengeTarget) {
	if i := c.findChallenge(target); i >= 0 {
		c.challenges = append(c.challenges[:i], c.challenges[i+1:]...)
	}
}
