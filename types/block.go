// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
)

// MerkleState is the commitment to the account tree: its root and the number
// of accounts.
type MerkleState struct {
	Root  ids.ID `serialize:"true" json:"root"`
	Count uint32 `serialize:"true" json:"count"`
}

// BlockMerkleState is the commitment to the block tree.
type BlockMerkleState struct {
	Root  ids.ID `serialize:"true" json:"root"`
	Count uint64 `serialize:"true" json:"count"`
}

// RawL2Block is the part of a block covered by its hash.
//
// [StateCheckpoints] holds the account root after each withdrawal followed by
// the account root after each transaction. Deposits are applied between the
// last withdrawal and the first transaction.
type RawL2Block struct {
	Number                uint64      `serialize:"true" json:"number"`
	ParentBlockHash       ids.ID      `serialize:"true" json:"parentBlockHash"`
	ProducerID            uint32      `serialize:"true" json:"producerID"`
	Timestamp             uint64      `serialize:"true" json:"timestamp"`
	PrevAccount           MerkleState `serialize:"true" json:"prevAccount"`
	PostAccount           MerkleState `serialize:"true" json:"postAccount"`
	TxWitnessRoot         ids.ID      `serialize:"true" json:"txWitnessRoot"`
	TxCount               uint32      `serialize:"true" json:"txCount"`
	WithdrawalWitnessRoot ids.ID      `serialize:"true" json:"withdrawalWitnessRoot"`
	WithdrawalCount       uint32      `serialize:"true" json:"withdrawalCount"`
	StateCheckpoints      []ids.ID    `serialize:"true" json:"stateCheckpoints"`
}

// Hash returns the block hash.
func (r *RawL2Block) Hash() ids.ID { return Hash(r.Bytes()) }

// WithdrawalCheckpoint returns the account root after withdrawal [i].
func (r *RawL2Block) WithdrawalCheckpoint(i int) (ids.ID, bool) {
	if i < 0 || i >= int(r.WithdrawalCount) || i >= len(r.StateCheckpoints) {
		return ids.Empty, false
	}
	return r.StateCheckpoints[i], true
}

// TxCheckpoint returns the account root after transaction [i].
func (r *RawL2Block) TxCheckpoint(i int) (ids.ID, bool) {
	idx := int(r.WithdrawalCount) + i
	if i < 0 || i >= int(r.TxCount) || idx >= len(r.StateCheckpoints) {
		return ids.Empty, false
	}
	return r.StateCheckpoints[idx], true
}

type L2Block struct {
	Raw          RawL2Block          `serialize:"true" json:"raw"`
	Transactions []L2Transaction     `serialize:"true" json:"transactions"`
	Withdrawals  []WithdrawalRequest `serialize:"true" json:"withdrawals"`
}

func (b *L2Block) Hash() ids.ID { return b.Raw.Hash() }

func (b *L2Block) Number() uint64 { return b.Raw.Number }

// BlockInfo is the block context visible to the generator.
type BlockInfo struct {
	ProducerID uint32
	Number     uint64
	Timestamp  uint64
}

func (b *L2Block) Info() BlockInfo {
	return BlockInfo{
		ProducerID: b.Raw.ProducerID,
		Number:     b.Raw.Number,
		Timestamp:  b.Raw.Timestamp,
	}
}

// Status of the rollup as posted to L1.
type Status uint8

const (
	StatusRunning Status = iota
	StatusHalting
)

func (s Status) String() string {
	if s == StatusHalting {
		return "halting"
	}
	return "running"
}

// GlobalState is the commitment posted back to L1 with every block.
type GlobalState struct {
	Account          MerkleState      `serialize:"true" json:"account"`
	Block            BlockMerkleState `serialize:"true" json:"block"`
	TipBlockHash     ids.ID           `serialize:"true" json:"tipBlockHash"`
	RollupConfigHash ids.ID           `serialize:"true" json:"rollupConfigHash"`
	Status           Status           `serialize:"true" json:"status"`
}
