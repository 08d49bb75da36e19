// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/smt"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

var (
	ErrBlockNumber = errors.New("unexpected block number")

	_ state.State = (*Transaction)(nil)
)

// Transaction is an isolated view of one version. Writes stay in an
// in-memory overlay until Commit.
type Transaction struct {
	store *Store
	base  Version

	db       *versiondb.Database
	scriptDB database.Database
	dataDB   database.Database
	blocks   BlockState

	accountTree  *smt.Tree
	blockTree    *smt.Tree
	accountCount uint32
	blockCount   uint64
	tipBlockHash ids.ID
	newBlocks    []*types.L2Block

	readOnly bool
	detached bool
	closed   bool
}

func (s *Store) newTransaction(base Version, readOnly bool) *Transaction {
	db := versiondb.New(s.db)
	nodeDB := prefixdb.New(smtPrefix, db)
	return &Transaction{
		store:    s,
		base:     base,
		db:       db,
		scriptDB: prefixdb.New(scriptPrefix, db),
		dataDB:   prefixdb.New(dataPrefix, db),
		blocks: NewBlockState(
			prefixdb.New(blockPrefix, db),
			prefixdb.New(l1InfoPrefix, db),
			prefixdb.New(blockVersionPrefix, db),
			nil,
		),
		accountTree:  smt.New(nodeDB, base.AccountRoot, s.nodeCache),
		blockTree:    smt.New(nodeDB, base.BlockRoot, s.nodeCache),
		accountCount: base.AccountCount,
		blockCount:   base.BlockCount,
		tipBlockHash: base.TipBlockHash,
		readOnly:     readOnly,
	}
}

func (t *Transaction) checkWritable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	if t.closed {
		return ErrClosed
	}
	return nil
}

// Base returns the version the transaction was opened on.
func (t *Transaction) Base() Version { return t.base }

func (t *Transaction) GetRaw(key ids.ID) (ids.ID, error) {
	return t.accountTree.Get(key)
}

func (t *Transaction) UpdateRaw(key, value ids.ID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.accountTree.Update(key, value)
}

func (t *Transaction) CalculateRoot() (ids.ID, error) {
	return t.accountTree.Root(), nil
}

func (t *Transaction) GetAccountCount() (uint32, error) {
	return t.accountCount, nil
}

func (t *Transaction) SetAccountCount(count uint32) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.accountCount = count
	return nil
}

func (t *Transaction) GetScript(hash ids.ID) (*types.Script, error) {
	bytes, err := t.scriptDB.Get(hash[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", state.ErrScriptNotFound, hash)
	}
	if err != nil {
		return nil, err
	}
	script := &types.Script{}
	if _, err := types.Codec.Unmarshal(bytes, script); err != nil {
		return nil, err
	}
	return script, nil
}

func (t *Transaction) InsertScript(hash ids.ID, script *types.Script) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	bytes, err := types.Codec.Marshal(types.CodecVersion, script)
	if err != nil {
		return err
	}
	return t.scriptDB.Put(hash[:], bytes)
}

func (t *Transaction) GetData(hash ids.ID) ([]byte, error) {
	data, err := t.dataDB.Get(hash[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", state.ErrDataNotFound, hash)
	}
	return data, err
}

func (t *Transaction) InsertData(hash ids.ID, data []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.dataDB.Put(hash[:], data)
}

// InsertBlock appends [blk] to the block tree and makes it the tip block.
func (t *Transaction) InsertBlock(blk *types.L2Block, l1Info *BlockL1Info) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if blk.Number() != t.blockCount {
		return fmt.Errorf("%w: got %d, expected %d", ErrBlockNumber, blk.Number(), t.blockCount)
	}

	blkID := blk.Hash()
	if err := t.blocks.PutBlock(blk); err != nil {
		return err
	}
	if err := t.blocks.PutL1Info(blkID, l1Info); err != nil {
		return err
	}
	if err := t.blockTree.Update(state.BlockKey(blk.Number()), blkID); err != nil {
		return err
	}
	t.blockCount++
	t.tipBlockHash = blkID
	t.newBlocks = append(t.newBlocks, blk)
	return nil
}

func (t *Transaction) BlockMerkleState() types.BlockMerkleState {
	return types.BlockMerkleState{Root: t.blockTree.Root(), Count: t.blockCount}
}

func (t *Transaction) TipBlockHash() ids.ID { return t.tipBlockHash }

// GetBlockHashByNumber reports the canonical block at [number] in this view.
func (t *Transaction) GetBlockHashByNumber(number uint64) (ids.ID, bool, error) {
	if number >= t.blockCount {
		return ids.Empty, false, nil
	}
	blkID, err := t.blockTree.Get(state.BlockKey(number))
	if err != nil {
		return ids.Empty, false, err
	}
	return blkID, blkID != ids.Empty, nil
}

// GetBlock reads blocks written by this transaction as well as committed ones.
func (t *Transaction) GetBlock(blkID ids.ID) (*types.L2Block, error) {
	return t.blocks.GetBlock(blkID)
}

// Commit persists the overlay as a new version and makes it the tip.
func (t *Transaction) Commit() (uint64, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}
	if t.detached {
		return 0, ErrDetached
	}
	id, err := t.store.commit(t)
	if err != nil {
		return 0, err
	}
	t.closed = true
	return id, nil
}

// Discard drops every pending write.
func (t *Transaction) Discard() {
	t.db.Abort()
	t.closed = true
}
