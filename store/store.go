// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store keeps the account and block trees of the rollup as a
// sequence of immutable versions.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/rollupvm/types"
)

const (
	nodeCacheSize = 1 << 16
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	smtPrefix          = []byte("smt")
	scriptPrefix       = []byte("script")
	dataPrefix         = []byte("data")
	blockPrefix        = []byte("block")
	blockVersionPrefix = []byte("blockver")
	l1InfoPrefix       = []byte("l1info")
	versionPrefix      = []byte("version")
	singletonPrefix    = []byte("singleton")

	ErrVersionNotFound = errors.New("version not found")
	ErrTipMoved        = errors.New("tip moved since the transaction began")
	ErrRevertForward   = errors.New("revert target is newer than the tip")
	ErrReadOnly        = errors.New("read-only transaction")
	ErrClosed          = errors.New("transaction already committed or discarded")
	ErrDetached        = errors.New("forked transaction cannot be committed")
)

// Version is an immutable snapshot of both trees. Versions are numbered in
// commit order; [Parent] is the tip the version was built on.
type Version struct {
	ID           uint64 `serialize:"true" json:"id"`
	Parent       uint64 `serialize:"true" json:"parent"`
	AccountRoot  ids.ID `serialize:"true" json:"accountRoot"`
	AccountCount uint32 `serialize:"true" json:"accountCount"`
	BlockRoot    ids.ID `serialize:"true" json:"blockRoot"`
	BlockCount   uint64 `serialize:"true" json:"blockCount"`
	TipBlockHash ids.ID `serialize:"true" json:"tipBlockHash"`
}

func (v Version) AccountMerkleState() types.MerkleState {
	return types.MerkleState{Root: v.AccountRoot, Count: v.AccountCount}
}

func (v Version) BlockMerkleState() types.BlockMerkleState {
	return types.BlockMerkleState{Root: v.BlockRoot, Count: v.BlockCount}
}

// Store is safe for concurrent readers. Only one transaction may commit
// against a given tip.
type Store struct {
	lock sync.RWMutex

	db database.Database

	nodeCache cache.Cacher[ids.ID, []byte]
	blkCache  cache.Cacher[ids.ID, *types.L2Block]
	blocks    BlockState
	singleton SingletonState
	versionDB database.Database

	tip  Version
	last uint64
}

// Open loads the store persisted in [db], initializing an empty one when
// [db] holds none. Version 0 is the empty state.
func Open(db database.Database) (*Store, error) {
	blkCache := &cache.LRU[ids.ID, *types.L2Block]{Size: blockCacheSize}
	s := &Store{
		db:        db,
		nodeCache: &cache.LRU[ids.ID, []byte]{Size: nodeCacheSize},
		blkCache:  blkCache,
		blocks: NewBlockState(
			prefixdb.New(blockPrefix, db),
			prefixdb.New(l1InfoPrefix, db),
			prefixdb.New(blockVersionPrefix, db),
			blkCache,
		),
		singleton: NewSingletonState(prefixdb.New(singletonPrefix, db)),
		versionDB: prefixdb.New(versionPrefix, db),
	}

	initialized, err := s.singleton.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		batch := versiondb.New(db)
		if err := putVersion(prefixdb.New(versionPrefix, batch), &Version{}); err != nil {
			return nil, err
		}
		if err := NewSingletonState(prefixdb.New(singletonPrefix, batch)).SetPointers(0, 0); err != nil {
			return nil, err
		}
		if err := batch.Commit(); err != nil {
			return nil, err
		}
	}

	tip, err := s.singleton.GetTip()
	if err != nil {
		return nil, err
	}
	if s.last, err = s.singleton.GetLast(); err != nil {
		return nil, err
	}
	version, err := s.GetVersion(tip)
	if err != nil {
		return nil, err
	}
	s.tip = *version
	return s, nil
}

func versionKey(id uint64) []byte {
	key := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func putVersion(db database.KeyValueWriter, v *Version) error {
	bytes, err := types.Codec.Marshal(types.CodecVersion, v)
	if err != nil {
		return err
	}
	return db.Put(versionKey(v.ID), bytes)
}

// GetVersion loads a committed version.
func (s *Store) GetVersion(id uint64) (*Version, error) {
	bytes, err := s.versionDB.Get(versionKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrVersionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	v := &Version{}
	if _, err := types.Codec.Unmarshal(bytes, v); err != nil {
		return nil, err
	}
	return v, nil
}

// TipVersion returns the version new transactions build on.
func (s *Store) TipVersion() Version {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.tip
}

// IsEmpty reports whether no block was ever committed at the tip.
func (s *Store) IsEmpty() bool {
	return s.TipVersion().BlockCount == 0
}

func (s *Store) TipBlock() (*types.L2Block, error) {
	tip := s.TipVersion()
	if tip.BlockCount == 0 {
		return nil, ErrBlockNotFound
	}
	return s.blocks.GetBlock(tip.TipBlockHash)
}

// GetBlock returns any block ever committed, canonical or not.
func (s *Store) GetBlock(blkID ids.ID) (*types.L2Block, error) {
	return s.blocks.GetBlock(blkID)
}

func (s *Store) GetBlockL1Info(blkID ids.ID) (*BlockL1Info, error) {
	return s.blocks.GetL1Info(blkID)
}

func (s *Store) GetBlockVersion(blkID ids.ID) (uint64, error) {
	return s.blocks.GetBlockVersion(blkID)
}

// BeginTransaction opens a writable view of the tip.
func (s *Store) BeginTransaction() *Transaction {
	return s.newTransaction(s.TipVersion(), false)
}

// Checkout opens a read-only view of version [id].
func (s *Store) Checkout(id uint64) (*Transaction, error) {
	version, err := s.GetVersion(id)
	if err != nil {
		return nil, err
	}
	return s.newTransaction(*version, true), nil
}

// Fork opens a writable view of version [id] that can never be committed.
func (s *Store) Fork(id uint64) (*Transaction, error) {
	version, err := s.GetVersion(id)
	if err != nil {
		return nil, err
	}
	t := s.newTransaction(*version, false)
	t.detached = true
	return t, nil
}

// RevertTo moves the tip back to version [id]. Later versions are kept.
func (s *Store) RevertTo(id uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if id > s.tip.ID {
		return fmt.Errorf("%w: %d > %d", ErrRevertForward, id, s.tip.ID)
	}
	version, err := s.GetVersion(id)
	if err != nil {
		return err
	}
	if err := s.singleton.SetTip(id); err != nil {
		return err
	}
	s.tip = *version
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) commit(t *Transaction) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.tip.ID != t.base.ID {
		return 0, fmt.Errorf("%w: began on %d, tip is %d", ErrTipMoved, t.base.ID, s.tip.ID)
	}

	version := Version{
		ID:           s.last + 1,
		Parent:       t.base.ID,
		AccountRoot:  t.accountTree.Root(),
		AccountCount: t.accountCount,
		BlockRoot:    t.blockTree.Root(),
		BlockCount:   t.blockCount,
		TipBlockHash: t.tipBlockHash,
	}

	errs := wrappers.Errs{}
	errs.Add(putVersion(prefixdb.New(versionPrefix, t.db), &version))
	for _, blk := range t.newBlocks {
		errs.Add(t.blocks.PutBlockVersion(blk.Hash(), version.ID))
	}
	errs.Add(NewSingletonState(prefixdb.New(singletonPrefix, t.db)).SetPointers(version.ID, version.ID))
	if errs.Errored() {
		return 0, errs.Err
	}
	if err := t.db.Commit(); err != nil {
		return 0, err
	}

	s.tip = version
	s.last = version.ID
	for _, blk := range t.newBlocks {
		s.blkCache.Put(blk.Hash(), blk)
	}
	return version.ID, nil
}
