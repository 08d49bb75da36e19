// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// LockAlgorithm verifies signatures for one lock script code hash.
type LockAlgorithm interface {
	// VerifySignature returns a *LockAlgorithmError when [lockArgs] or
	// [signature] is malformed.
	VerifySignature(lockArgs, signature []byte, message ids.ID) (bool, error)
}

// LockAlgorithmError reports input a lock algorithm cannot interpret.
type LockAlgorithmError struct {
	Reason string
}

func (e *LockAlgorithmError) Error() string {
	return "lock algorithm: " + e.Reason
}

// AccountLockManage dispatches signature checks by lock code hash.
// Registration happens during setup, before any concurrent use.
type AccountLockManage struct {
	locks map[ids.ID]LockAlgorithm
}

func NewAccountLockManage() *AccountLockManage {
	return &AccountLockManage{
		locks: make(map[ids.ID]LockAlgorithm),
	}
}

// Register binds [lock] to [codeHash], replacing any previous binding.
func (m *AccountLockManage) Register(codeHash ids.ID, lock LockAlgorithm) {
	m.locks[codeHash] = lock
}

func (m *AccountLockManage) Get(codeHash ids.ID) (LockAlgorithm, error) {
	lock, ok := m.locks[codeHash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLockScript, codeHash)
	}
	return lock, nil
}

func (m *AccountLockManage) VerifySignature(codeHash ids.ID, lockArgs, signature []byte, message ids.ID) (bool, error) {
	lock, err := m.Get(codeHash)
	if err != nil {
		return false, err
	}
	return lock.VerifySignature(lockArgs, signature, message)
}
