// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

// Backend is the native implementation of a contract code hash.
type Backend interface {
	// Run executes [args] sent to ctx.AccountID(). All state access must go
	// through ctx.State().
	Run(ctx *RunContext, args []byte) ([]byte, error)
}

// BackendManage maps contract code hashes to backends.
type BackendManage struct {
	backends map[ids.ID]Backend
}

// NewBackendManage returns a registry holding the meta contract and the
// simple-UDT backends at the code hashes of [rollupConfig].
func NewBackendManage(rollupConfig *types.RollupConfig) *BackendManage {
	m := &BackendManage{
		backends: make(map[ids.ID]Backend),
	}
	m.Register(rollupConfig.MetaContractCodeHash, &MetaContract{})
	m.Register(rollupConfig.SUDTCodeHash, &SUDT{})
	return m
}

// Register binds [backend] to [codeHash], replacing any previous binding.
func (m *BackendManage) Register(codeHash ids.ID, backend Backend) {
	m.backends[codeHash] = backend
}

func (m *BackendManage) Get(codeHash ids.ID) (Backend, bool) {
	backend, ok := m.backends[codeHash]
	return backend, ok
}

// RunContext is what a backend sees while it runs.
type RunContext struct {
	state     *trackedState
	info      types.BlockInfo
	sender    uint32
	accountID uint32

	backends     *BackendManage
	rollupConfig *types.RollupConfig
	logs         []types.LogItem
}

// State is the tracked view of the state the entry runs on.
func (c *RunContext) State() state.State { return c.state }

func (c *RunContext) BlockInfo() types.BlockInfo { return c.info }

// Sender is the account that signed the transaction.
func (c *RunContext) Sender() uint32 { return c.sender }

// AccountID is the account being called.
func (c *RunContext) AccountID() uint32 { return c.accountID }

func (c *RunContext) RollupConfig() *types.RollupConfig { return c.rollupConfig }

func (c *RunContext) EmitLog(serviceFlag uint8, data []byte) {
	c.logs = append(c.logs, types.LogItem{
		AccountID:   c.accountID,
		ServiceFlag: serviceFlag,
		Data:        data,
	})
}

// CreateAccount creates an account for [script]. Its code hash must be an
// allowed EOA lock or a registered backend.
func (c *RunContext) CreateAccount(script *types.Script) (uint32, error) {
	if err := checkNewAccountScript(c.rollupConfig, c.backends, script); err != nil {
		return 0, err
	}
	return state.CreateAccount(c.state, script)
}

func checkNewAccountScript(rollupConfig *types.RollupConfig, backends *BackendManage, script *types.Script) error {
	if rollupConfig.IsLockAllowed(script.CodeHash) {
		return nil
	}
	if _, ok := backends.Get(script.CodeHash); ok {
		return nil
	}
	return newError(InvalidExitCode, fmt.Errorf("%w: %s", ErrLockNotAllowed, script.CodeHash))
}
