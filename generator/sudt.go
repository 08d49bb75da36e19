// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/holiman/uint256"

	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

// SUDTTransferLog is the service flag of the log emitted by a transfer.
const SUDTTransferLog uint8 = 0

var _ Backend = (*SUDT)(nil)

// SUDT is the simple user defined token. Every account with the simple-UDT
// code hash is one token; balances live in its contract storage.
type SUDT struct{}

func (*SUDT) Run(ctx *RunContext, args []byte) ([]byte, error) {
	sudtArgs := types.SUDTArgs{}
	if err := types.Unmarshal(args, &sudtArgs); err != nil {
		return nil, newError(InvalidExitCode, fmt.Errorf("%w: %v", ErrInvalidArgs, err))
	}

	switch call := sudtArgs.Call.(type) {
	case *types.SUDTQuery:
		balance, err := state.GetBalance(ctx.State(), ctx.AccountID(), call.AccountID)
		if err != nil {
			return nil, err
		}
		b := balance.Bytes32()
		return b[:], nil
	case *types.SUDTTransfer:
		return nil, transfer(ctx, call)
	default:
		return nil, newError(InvalidExitCode, fmt.Errorf("%w: unexpected call %T", ErrInvalidArgs, call))
	}
}

func transfer(ctx *RunContext, call *types.SUDTTransfer) error {
	st := ctx.State()
	sudtID := ctx.AccountID()

	to, ok, err := state.GetAccountIDByScriptHash(st, call.To.Hash())
	if err != nil {
		return err
	}
	if !ok {
		if to, err = ctx.CreateAccount(&call.To); err != nil {
			return err
		}
	}

	amount := uint256.NewInt(call.Amount)
	fee := uint256.NewInt(call.Fee)
	total := new(uint256.Int).Add(amount, fee)
	if err := state.BurnBalance(st, sudtID, ctx.Sender(), total); err != nil {
		return err
	}
	if err := state.MintBalance(st, sudtID, to, amount); err != nil {
		return err
	}
	if err := state.MintBalance(st, sudtID, ctx.BlockInfo().ProducerID, fee); err != nil {
		return err
	}

	p := wrappers.Packer{MaxSize: 2*wrappers.IntLen + 2*wrappers.LongLen}
	p.PackInt(ctx.Sender())
	p.PackInt(to)
	p.PackLong(call.Amount)
	p.PackLong(call.Fee)
	if p.Err != nil {
		return p.Err
	}
	ctx.EmitLog(SUDTTransferLog, p.Bytes)
	return nil
}
