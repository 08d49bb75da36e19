// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/types"
)

const (
	blockCacheSize = 8192
)

var (
	ErrBlockNotFound = errors.New("block not found")

	errBlockWrongVersion = errors.New("wrong version")

	_ BlockState = &blockState{}
)

type BlockState interface {
	GetBlock(blkID ids.ID) (*types.L2Block, error)
	PutBlock(blk *types.L2Block) error

	// GetL1Info returns what the L1 recorded along with the block.
	GetL1Info(blkID ids.ID) (*BlockL1Info, error)
	PutL1Info(blkID ids.ID, info *BlockL1Info) error

	// GetBlockVersion returns the version committed by the block.
	GetBlockVersion(blkID ids.ID) (uint64, error)
	PutBlockVersion(blkID ids.ID, version uint64) error
}

// BlockL1Info is the L1 context a block was submitted in.
type BlockL1Info struct {
	Header   types.HeaderInfo          `serialize:"true" json:"header"`
	Deposits []types.DepositionRequest `serialize:"true" json:"deposits"`
}

type blockState struct {
	// nil for transaction overlays so that uncommitted blocks are never served
	blkCache cache.Cacher[ids.ID, *types.L2Block]

	blockDB   database.Database
	l1InfoDB  database.Database
	versionDB database.Database
}

func NewBlockState(blockDB, l1InfoDB, versionDB database.Database, blkCache cache.Cacher[ids.ID, *types.L2Block]) BlockState {
	return &blockState{
		blkCache:  blkCache,
		blockDB:   blockDB,
		l1InfoDB:  l1InfoDB,
		versionDB: versionDB,
	}
}

func (s *blockState) GetBlock(blkID ids.ID) (*types.L2Block, error) {
	if s.blkCache != nil {
		if blk, ok := s.blkCache.Get(blkID); ok {
			return blk, nil
		}
	}

	blkBytes, err := s.blockDB.Get(blkID[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blkID)
	}
	if err != nil {
		return nil, err
	}

	blk := &types.L2Block{}
	parsedVersion, err := types.Codec.Unmarshal(blkBytes, blk)
	if err != nil {
		return nil, err
	}
	if parsedVersion != types.CodecVersion {
		return nil, errBlockWrongVersion
	}

	if s.blkCache != nil {
		s.blkCache.Put(blkID, blk)
	}
	return blk, nil
}

func (s *blockState) PutBlock(blk *types.L2Block) error {
	bytes, err := types.Codec.Marshal(types.CodecVersion, blk)
	if err != nil {
		return err
	}

	blkID := blk.Hash()
	if s.blkCache != nil {
		s.blkCache.Put(blkID, blk)
	}
	return s.blockDB.Put(blkID[:], bytes)
}

func (s *blockState) GetL1Info(blkID ids.ID) (*BlockL1Info, error) {
	bytes, err := s.l1InfoDB.Get(blkID[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blkID)
	}
	if err != nil {
		return nil, err
	}
	info := &BlockL1Info{}
	if _, err := types.Codec.Unmarshal(bytes, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *blockState) PutL1Info(blkID ids.ID, info *BlockL1Info) error {
	bytes, err := types.Codec.Marshal(types.CodecVersion, info)
	if err != nil {
		return err
	}
	return s.l1InfoDB.Put(blkID[:], bytes)
}

func (s *blockState) GetBlockVersion(blkID ids.ID) (uint64, error) {
	version, err := database.GetUInt64(s.versionDB, blkID[:])
	if errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrBlockNotFound, blkID)
	}
	return version, err
}

func (s *blockState) PutBlockVersion(blkID ids.ID, version uint64) error {
	return database.PutUInt64(s.versionDB, blkID[:], version)
}
