// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package locks holds the lock algorithms a deployment can register.
package locks

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/rollupvm/generator"
)

var _ generator.LockAlgorithm = AlwaysSuccess{}

// AlwaysSuccess accepts any signature. It is meant for local deployments
// and tests.
type AlwaysSuccess struct{}

func (AlwaysSuccess) VerifySignature([]byte, []byte, ids.ID) (bool, error) {
	return true, nil
}
