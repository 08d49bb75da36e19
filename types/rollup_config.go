// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// Code hashes of the built-in backends and of the always-success lock.
var (
	MetaContractCodeHash  = Hash([]byte("meta-contract"))
	SUDTCodeHash          = Hash([]byte("simple-udt"))
	AlwaysSuccessCodeHash = Hash([]byte("always-success"))
	Secp256k1CodeHash     = Hash([]byte("secp256k1-eth-lock"))
)

// Reserved account ids.
const (
	MetaContractAccountID uint32 = 0
	CKBSUDTAccountID      uint32 = 1
)

// RollupConfig holds the consensus parameters shared by every node of a rollup.
type RollupConfig struct {
	ChainID              uint64   `serialize:"true" json:"chainID"`
	FinalityBlocks       uint64   `serialize:"true" json:"finalityBlocks"`
	MetaContractCodeHash ids.ID   `serialize:"true" json:"metaContractCodeHash"`
	SUDTCodeHash         ids.ID   `serialize:"true" json:"sudtCodeHash"`
	// AllowedEOALockCodeHashes restricts the locks new accounts may use.
	// An empty list allows any lock.
	AllowedEOALockCodeHashes []ids.ID `serialize:"true" json:"allowedEOALockCodeHashes"`
}

// DefaultRollupConfig returns the configuration used by local deployments.
func DefaultRollupConfig() *RollupConfig {
	return &RollupConfig{
		ChainID:              1,
		FinalityBlocks:       100,
		MetaContractCodeHash: MetaContractCodeHash,
		SUDTCodeHash:         SUDTCodeHash,
	}
}

// Hash commits to every field of the config.
func (c *RollupConfig) Hash() ids.ID {
	p := newPacker(2*wrappers.LongLen + 64 + wrappers.IntLen + 32*len(c.AllowedEOALockCodeHashes))
	p.PackLong(c.ChainID)
	p.PackLong(c.FinalityBlocks)
	p.PackFixedBytes(c.MetaContractCodeHash[:])
	p.PackFixedBytes(c.SUDTCodeHash[:])
	p.PackInt(uint32(len(c.AllowedEOALockCodeHashes)))
	for _, codeHash := range c.AllowedEOALockCodeHashes {
		p.PackFixedBytes(codeHash[:])
	}
	return Hash(mustBytes(p))
}

// IsLockAllowed reports whether new accounts may be created with [codeHash].
func (c *RollupConfig) IsLockAllowed(codeHash ids.ID) bool {
	if len(c.AllowedEOALockCodeHashes) == 0 {
		return true
	}
	for _, allowed := range c.AllowedEOALockCodeHashes {
		if allowed == codeHash {
			return true
		}
	}
	return false
}
