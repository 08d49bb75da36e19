// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// ScriptHashType tells how [Script.CodeHash] is matched against code on L1.
type ScriptHashType uint8

const (
	HashTypeData ScriptHashType = iota
	HashTypeType
)

func (t ScriptHashType) String() string {
	switch t {
	case HashTypeData:
		return "data"
	case HashTypeType:
		return "type"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Script identifies an account. Its CodeHash selects either a lock algorithm
// (for externally owned accounts) or a backend (for contract accounts).
type Script struct {
	CodeHash ids.ID         `serialize:"true" json:"codeHash"`
	HashType ScriptHashType `serialize:"true" json:"hashType"`
	Args     []byte         `serialize:"true" json:"args"`
}

// Hash returns the script hash, which is the account's address in the state tree.
func (s *Script) Hash() ids.ID {
	return Hash(s.Bytes())
}

func (s *Script) String() string {
	return fmt.Sprintf("{code_hash: %s, hash_type: %s, args: %x}", s.CodeHash.Hex(), s.HashType, s.Args)
}
