// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// Hash preimages are packed by hand instead of through [Codec] so that the
// commitments do not depend on the codec version prefix.
const maxPreimageSize = 16 * 1024 * 1024

func newPacker(size int) *wrappers.Packer {
	return &wrappers.Packer{
		MaxSize: maxPreimageSize,
		Bytes:   make([]byte, 0, size),
	}
}

// Bytes returns the hash preimage of the script.
func (s *Script) Bytes() []byte {
	p := newPacker(32 + 1 + wrappers.IntLen + len(s.Args))
	packScript(p, s)
	return mustBytes(p)
}

func packScript(p *wrappers.Packer, s *Script) {
	p.PackFixedBytes(s.CodeHash[:])
	p.PackByte(byte(s.HashType))
	p.PackBytes(s.Args)
}

// Bytes returns the hash preimage of the raw transaction.
func (r *RawL2Transaction) Bytes() []byte {
	p := newPacker(3*wrappers.IntLen + wrappers.IntLen + len(r.Args))
	packRawTransaction(p, r)
	return mustBytes(p)
}

func packRawTransaction(p *wrappers.Packer, r *RawL2Transaction) {
	p.PackInt(r.FromID)
	p.PackInt(r.ToID)
	p.PackInt(r.Nonce)
	p.PackBytes(r.Args)
}

// WitnessBytes returns the raw transaction followed by its signature.
func (tx *L2Transaction) WitnessBytes() []byte {
	p := newPacker(64 + len(tx.Raw.Args) + len(tx.Signature))
	packRawTransaction(p, &tx.Raw)
	p.PackBytes(tx.Signature)
	return mustBytes(p)
}

// Bytes returns the hash preimage of the raw withdrawal request.
func (r *RawWithdrawalRequest) Bytes() []byte {
	p := newPacker(2*wrappers.IntLen + wrappers.LongLen + 64)
	packRawWithdrawal(p, r)
	return mustBytes(p)
}

func packRawWithdrawal(p *wrappers.Packer, r *RawWithdrawalRequest) {
	p.PackInt(r.Nonce)
	p.PackFixedBytes(r.AccountScriptHash[:])
	p.PackInt(r.SUDTID)
	p.PackLong(r.Amount)
	p.PackFixedBytes(r.OwnerLockHash[:])
}

// WitnessBytes returns the raw withdrawal request followed by its signature.
func (w *WithdrawalRequest) WitnessBytes() []byte {
	p := newPacker(128 + len(w.Signature))
	packRawWithdrawal(p, &w.Raw)
	p.PackBytes(w.Signature)
	return mustBytes(p)
}

func packMerkleState(p *wrappers.Packer, m MerkleState) {
	p.PackFixedBytes(m.Root[:])
	p.PackInt(m.Count)
}

// Bytes returns the hash preimage of the raw block.
func (r *RawL2Block) Bytes() []byte {
	p := newPacker(256 + 32*len(r.StateCheckpoints))
	p.PackLong(r.Number)
	p.PackFixedBytes(r.ParentBlockHash[:])
	p.PackInt(r.ProducerID)
	p.PackLong(r.Timestamp)
	packMerkleState(p, r.PrevAccount)
	packMerkleState(p, r.PostAccount)
	p.PackFixedBytes(r.TxWitnessRoot[:])
	p.PackInt(r.TxCount)
	p.PackFixedBytes(r.WithdrawalWitnessRoot[:])
	p.PackInt(r.WithdrawalCount)
	p.PackInt(uint32(len(r.StateCheckpoints)))
	for _, checkpoint := range r.StateCheckpoints {
		p.PackFixedBytes(checkpoint[:])
	}
	return mustBytes(p)
}

// Every preimage above is bounded well below [maxPreimageSize] by the codec's
// slice limits, so a packing error is a programming error.
func mustBytes(p *wrappers.Packer) []byte {
	if p.Err != nil {
		panic(p.Err)
	}
	return p.Bytes
}
