// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
)

// RawL2Transaction is the signed part of a layer 2 transaction.
// [Args] is interpreted by the backend of account [ToID].
type RawL2Transaction struct {
	FromID uint32 `serialize:"true" json:"fromID"`
	ToID   uint32 `serialize:"true" json:"toID"`
	Nonce  uint32 `serialize:"true" json:"nonce"`
	Args   []byte `serialize:"true" json:"args"`
}

// Hash returns the raw transaction hash.
func (r *RawL2Transaction) Hash() ids.ID { return Hash(r.Bytes()) }

// SigningMessage binds the raw transaction to a single rollup.
func (r *RawL2Transaction) SigningMessage(rollupScriptHash ids.ID) ids.ID {
	return Hash(rollupScriptHash[:], r.Bytes())
}

type L2Transaction struct {
	Raw       RawL2Transaction `serialize:"true" json:"raw"`
	Signature []byte           `serialize:"true" json:"signature"`
}

// Hash identifies the transaction independently of its signature.
func (tx *L2Transaction) Hash() ids.ID { return tx.Raw.Hash() }

// WitnessHash commits to the transaction and its signature.
func (tx *L2Transaction) WitnessHash() ids.ID { return Hash(tx.WitnessBytes()) }

// RawWithdrawalRequest moves [Amount] of token [SUDTID] out of the rollup to
// the L1 lock identified by [OwnerLockHash].
type RawWithdrawalRequest struct {
	Nonce             uint32 `serialize:"true" json:"nonce"`
	AccountScriptHash ids.ID `serialize:"true" json:"accountScriptHash"`
	SUDTID            uint32 `serialize:"true" json:"sudtID"`
	Amount            uint64 `serialize:"true" json:"amount"`
	OwnerLockHash     ids.ID `serialize:"true" json:"ownerLockHash"`
}

func (r *RawWithdrawalRequest) Hash() ids.ID { return Hash(r.Bytes()) }

func (r *RawWithdrawalRequest) SigningMessage(rollupScriptHash ids.ID) ids.ID {
	return Hash(rollupScriptHash[:], r.Bytes())
}

type WithdrawalRequest struct {
	Raw       RawWithdrawalRequest `serialize:"true" json:"raw"`
	Signature []byte               `serialize:"true" json:"signature"`
}

func (w *WithdrawalRequest) Hash() ids.ID { return w.Raw.Hash() }

func (w *WithdrawalRequest) WitnessHash() ids.ID { return Hash(w.WitnessBytes()) }

// DepositionRequest credits [Amount] CKB to the account owning [Script],
// creating the account when it does not exist yet.
type DepositionRequest struct {
	Script Script `serialize:"true" json:"script"`
	Amount uint64 `serialize:"true" json:"amount"`
}

// LogItem is emitted by backends and carried in the run result.
type LogItem struct {
	AccountID   uint32 `serialize:"true" json:"accountID"`
	ServiceFlag uint8  `serialize:"true" json:"serviceFlag"`
	Data        []byte `serialize:"true" json:"data"`
}

// KVPair is a raw state tree entry.
type KVPair struct {
	Key   ids.ID `serialize:"true" json:"key"`
	Value ids.ID `serialize:"true" json:"value"`
}
