// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	TipVersionKey byte = iota
	LastVersionKey
)

var (
	tipVersionKey  = []byte{TipVersionKey}
	lastVersionKey = []byte{LastVersionKey}

	_ SingletonState = (*singletonState)(nil)
)

// SingletonState persists the version pointers of the store.
type SingletonState interface {
	// IsInitialized reports whether the pointers were ever written.
	IsInitialized() (bool, error)

	GetTip() (uint64, error)
	GetLast() (uint64, error)
	SetPointers(tip, last uint64) error
	SetTip(tip uint64) error
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(tipVersionKey)
}

func (s *singletonState) GetTip() (uint64, error) {
	return database.GetUInt64(s.singletonDB, tipVersionKey)
}

func (s *singletonState) GetLast() (uint64, error) {
	return database.GetUInt64(s.singletonDB, lastVersionKey)
}

func (s *singletonState) SetPointers(tip, last uint64) error {
	errs := wrappers.Errs{}
	errs.Add(
		database.PutUInt64(s.singletonDB, tipVersionKey, tip),
		database.PutUInt64(s.singletonDB, lastVersionKey, last),
	)
	return errs.Err
}

func (s *singletonState) SetTip(tip uint64) error {
	return database.PutUInt64(s.singletonDB, tipVersionKey, tip)
}
