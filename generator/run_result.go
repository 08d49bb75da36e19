// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

var (
	errRootUnavailable = errors.New("root is not tracked during execution")

	_ state.State = (*trackedState)(nil)
)

// RunResult is the diff produced by executing one entry. Applying it to the
// state the entry ran on yields the post state.
type RunResult struct {
	// ReadValues holds the value every key had when first read.
	ReadValues map[ids.ID]ids.ID
	// WriteValues holds the final value of every key written, changed or not.
	WriteValues  map[ids.ID]ids.ID
	AccountCount *uint32
	NewScripts   map[ids.ID]*types.Script
	WriteData    map[ids.ID][]byte
	// ReadData maps every data hash read to the length of the data.
	ReadData   map[ids.ID]int
	ReturnData []byte
	Logs       []types.LogItem
}

func sortedKVs(m map[ids.ID]ids.ID) []types.KVPair {
	kvs := make([]types.KVPair, 0, len(m))
	for key, value := range m {
		kvs = append(kvs, types.KVPair{Key: key, Value: value})
	}
	sort.Slice(kvs, func(i, j int) bool {
		return bytes.Compare(kvs[i].Key[:], kvs[j].Key[:]) < 0
	})
	return kvs
}

// ReadKVs returns the read set ordered by key.
func (r *RunResult) ReadKVs() []types.KVPair { return sortedKVs(r.ReadValues) }

// WriteKVs returns the write set ordered by key.
func (r *RunResult) WriteKVs() []types.KVPair { return sortedKVs(r.WriteValues) }

// ApplyRunResult writes [result] into [st].
func ApplyRunResult(st state.State, result *RunResult) error {
	for key, value := range result.WriteValues {
		if err := st.UpdateRaw(key, value); err != nil {
			return err
		}
	}
	if result.AccountCount != nil {
		if err := st.SetAccountCount(*result.AccountCount); err != nil {
			return err
		}
	}
	for hash, script := range result.NewScripts {
		if err := st.InsertScript(hash, script); err != nil {
			return err
		}
	}
	for hash, data := range result.WriteData {
		if err := st.InsertData(hash, data); err != nil {
			return err
		}
	}
	return nil
}

// trackedState buffers writes over a read-only parent and records every key
// it touches.
type trackedState struct {
	parent state.Reader

	reads        map[ids.ID]ids.ID
	writes       map[ids.ID]ids.ID
	accountCount *uint32
	scripts      map[ids.ID]*types.Script
	data         map[ids.ID][]byte
	readData     map[ids.ID]int

	// err is the first failure of the parent. It is fatal regardless of how
	// the backend handled it.
	err error
}

func newTrackedState(parent state.Reader) *trackedState {
	return &trackedState{
		parent:   parent,
		reads:    make(map[ids.ID]ids.ID),
		writes:   make(map[ids.ID]ids.ID),
		scripts:  make(map[ids.ID]*types.Script),
		data:     make(map[ids.ID][]byte),
		readData: make(map[ids.ID]int),
	}
}

func (t *trackedState) fail(err error) error {
	if t.err == nil {
		t.err = err
	}
	return err
}

func (t *trackedState) GetRaw(key ids.ID) (ids.ID, error) {
	if value, ok := t.writes[key]; ok {
		return value, nil
	}
	if value, ok := t.reads[key]; ok {
		return value, nil
	}
	value, err := t.parent.GetRaw(key)
	if err != nil {
		return ids.Empty, t.fail(err)
	}
	t.reads[key] = value
	return value, nil
}

func (t *trackedState) UpdateRaw(key, value ids.ID) error {
	t.writes[key] = value
	return nil
}

func (t *trackedState) GetAccountCount() (uint32, error) {
	if t.accountCount != nil {
		return *t.accountCount, nil
	}
	count, err := t.parent.GetAccountCount()
	if err != nil {
		return 0, t.fail(err)
	}
	return count, nil
}

func (t *trackedState) SetAccountCount(count uint32) error {
	t.accountCount = &count
	return nil
}

func (t *trackedState) GetScript(hash ids.ID) (*types.Script, error) {
	if script, ok := t.scripts[hash]; ok {
		return script, nil
	}
	script, err := t.parent.GetScript(hash)
	if err != nil && !errors.Is(err, state.ErrScriptNotFound) {
		return nil, t.fail(err)
	}
	return script, err
}

func (t *trackedState) InsertScript(hash ids.ID, script *types.Script) error {
	t.scripts[hash] = script
	return nil
}

func (t *trackedState) GetData(hash ids.ID) ([]byte, error) {
	if data, ok := t.data[hash]; ok {
		return data, nil
	}
	data, err := t.parent.GetData(hash)
	if err != nil {
		if !errors.Is(err, state.ErrDataNotFound) {
			return nil, t.fail(err)
		}
		return nil, err
	}
	t.readData[hash] = len(data)
	return data, nil
}

func (t *trackedState) InsertData(hash ids.ID, data []byte) error {
	t.data[hash] = data
	return nil
}

func (*trackedState) CalculateRoot() (ids.ID, error) {
	return ids.Empty, errRootUnavailable
}

func (t *trackedState) result(returnData []byte, logs []types.LogItem) *RunResult {
	return &RunResult{
		ReadValues:   t.reads,
		WriteValues:  t.writes,
		AccountCount: t.accountCount,
		NewScripts:   t.scripts,
		WriteData:    t.data,
		ReadData:     t.readData,
		ReturnData:   returnData,
		Logs:         logs,
	}
}
