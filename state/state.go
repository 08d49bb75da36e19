// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state defines the account layout on top of the raw state tree.
package state

import (
	"errors"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/types"
)

var (
	ErrScriptNotFound       = errors.New("script not found")
	ErrDataNotFound         = errors.New("data not found")
	ErrUnknownAccount       = errors.New("unknown account")
	ErrDuplicatedScriptHash = errors.New("duplicated script hash")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrBalanceOverflow      = errors.New("balance overflow")
	ErrCorruptedValue       = errors.New("corrupted state value")
)

// Reader is a read-only view of the account state.
type Reader interface {
	GetRaw(key ids.ID) (ids.ID, error)
	GetAccountCount() (uint32, error)
	// GetScript returns ErrScriptNotFound when the script is unknown.
	GetScript(hash ids.ID) (*types.Script, error)
	// GetData returns ErrDataNotFound when the data is unknown.
	GetData(hash ids.ID) ([]byte, error)
}

// State is a writable view of the account state.
type State interface {
	Reader

	UpdateRaw(key, value ids.ID) error
	SetAccountCount(count uint32) error
	InsertScript(hash ids.ID, script *types.Script) error
	InsertData(hash ids.ID, data []byte) error
	CalculateRoot() (ids.ID, error)
}

// GetMerkleState returns the commitment to [s].
func GetMerkleState(s State) (types.MerkleState, error) {
	root, err := s.CalculateRoot()
	if err != nil {
		return types.MerkleState{}, err
	}
	count, err := s.GetAccountCount()
	if err != nil {
		return types.MerkleState{}, err
	}
	return types.MerkleState{Root: root, Count: count}, nil
}
