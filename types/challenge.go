// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// ChallengeTargetType tells which part of a block is disputed.
type ChallengeTargetType uint8

const (
	TargetTxExecution ChallengeTargetType = iota
	TargetTxSignature
	TargetWithdrawal
	// TargetBlock disputes block level fields: the previous or post account
	// state and the global state posted with the block.
	TargetBlock
)

func (t ChallengeTargetType) String() string {
	switch t {
	case TargetTxExecution:
		return "tx_execution"
	case TargetTxSignature:
		return "tx_signature"
	case TargetWithdrawal:
		return "withdrawal"
	case TargetBlock:
		return "block"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ChallengeTarget identifies a disputed state transition.
type ChallengeTarget struct {
	BlockHash   ids.ID              `serialize:"true" json:"blockHash"`
	BlockNumber uint64              `serialize:"true" json:"blockNumber"`
	TargetIndex uint32              `serialize:"true" json:"targetIndex"`
	TargetType  ChallengeTargetType `serialize:"true" json:"targetType"`
}

func (t ChallengeTarget) String() string {
	return fmt.Sprintf("{block: %s, number: %d, index: %d, type: %s}", t.BlockHash, t.BlockNumber, t.TargetIndex, t.TargetType)
}

// ChallengeWitness carries what is needed to re-execute the target: the raw
// block and the state entries the target reads.
type ChallengeWitness struct {
	RawBlock RawL2Block `serialize:"true" json:"rawBlock"`
	KVState  []KVPair   `serialize:"true" json:"kvState"`
}

// ChallengeContext exists while a dispute is open.
type ChallengeContext struct {
	Target  ChallengeTarget  `serialize:"true" json:"target"`
	Witness ChallengeWitness `serialize:"true" json:"witness"`
}

func (c *ChallengeContext) String() string {
	return fmt.Sprintf("{target: %s, witness: {block: %s, kv_state: %d}}", c.Target, c.Witness.RawBlock.Hash(), len(c.Witness.KVState))
}
