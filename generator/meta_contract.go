// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/rollupvm/types"
)

var _ Backend = (*MetaContract)(nil)

// MetaContract creates accounts. It lives at account 0.
type MetaContract struct{}

// Run returns the id of the created account as a big-endian uint32.
func (*MetaContract) Run(ctx *RunContext, args []byte) ([]byte, error) {
	metaArgs := types.MetaContractArgs{}
	if err := types.Unmarshal(args, &metaArgs); err != nil {
		return nil, newError(InvalidExitCode, fmt.Errorf("%w: %v", ErrInvalidArgs, err))
	}

	switch call := metaArgs.Call.(type) {
	case *types.CreateAccount:
		id, err := ctx.CreateAccount(&call.Script)
		if err != nil {
			return nil, err
		}
		p := wrappers.Packer{Bytes: make([]byte, 0, wrappers.IntLen), MaxSize: wrappers.IntLen}
		p.PackInt(id)
		return p.Bytes, p.Err
	default:
		return nil, newError(InvalidExitCode, fmt.Errorf("%w: unexpected call %T", ErrInvalidArgs, call))
	}
}
