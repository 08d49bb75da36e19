// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/rollupvm/types"
)

// L1Transaction is the part of an L1 transaction the rollup reads: the
// submitted block and the global state posted with it. Both are codec bytes
// and are empty for actions that do not submit a block.
type L1Transaction struct {
	Block       []byte `serialize:"true" json:"block"`
	GlobalState []byte `serialize:"true" json:"globalState"`
}

// L1ActionContext is one of [SubmitTxs], [Challenge], [CancelChallenge] and
// [Revert].
type L1ActionContext interface {
	isL1ActionContext()
}

// SubmitTxs submits the block carried by the L1 transaction.
type SubmitTxs struct {
	Deposits []types.DepositionRequest
}

// Challenge opens a dispute on a committed block.
type Challenge struct {
	Target types.ChallengeTarget
}

// CancelChallenge closes a dispute by proving the disputed transition.
type CancelChallenge struct {
	Target  types.ChallengeTarget
	Witness types.ChallengeWitness
}

// Revert closes a dispute the challenger won. The target block and its
// descendants are rolled back.
type Revert struct {
	Target types.ChallengeTarget
}

func (*SubmitTxs) isL1ActionContext()       {}
func (*Challenge) isL1ActionContext()       {}
func (*CancelChallenge) isL1ActionContext() {}
func (*Revert) isL1ActionContext()          {}

type L1Action struct {
	Transaction L1Transaction
	HeaderInfo  types.HeaderInfo
	Context     L1ActionContext
}

// SyncParam is one batch of L1 changes. [Reverts] undo actions of a
// discarded L1 fork, oldest first; [Updates] follow them.
type SyncParam struct {
	Reverts          []L1Action
	Updates          []L1Action
	NextBlockContext *types.BlockInfo
}

type SyncEventKind uint8

const (
	Success SyncEventKind = iota
	// BadBlock means a submitted block diverges from local execution. The
	// context describes the challenge to open.
	BadBlock
	// BadChallenge means a challenge targets a valid transition. The context
	// describes the challenge to cancel.
	BadChallenge
	// WaitChallenge means a challenge is open and the rollup is halted.
	WaitChallenge
)

func (k SyncEventKind) String() string {
	switch k {
	case Success:
		return "success"
	case BadBlock:
		return "bad_block"
	case BadChallenge:
		return "bad_challenge"
	case WaitChallenge:
		return "wait_challenge"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// SyncEvent is the outcome of a sync batch. [Context] is nil on success.
type SyncEvent struct {
	Kind    SyncEventKind
	Context *types.ChallengeContext
}
