// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package generator executes transactions and withdrawals against a state
// snapshot and returns the resulting diff without committing it.
package generator

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"

	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/types"
)

type Generator struct {
	backends         *BackendManage
	locks            *AccountLockManage
	rollupScriptHash ids.ID
	rollupConfig     *types.RollupConfig
}

func New(
	backends *BackendManage,
	locks *AccountLockManage,
	rollupScriptHash ids.ID,
	rollupConfig *types.RollupConfig,
) *Generator {
	return &Generator{
		backends:         backends,
		locks:            locks,
		rollupScriptHash: rollupScriptHash,
		rollupConfig:     rollupConfig,
	}
}

func (g *Generator) RollupScriptHash() ids.ID { return g.rollupScriptHash }

func (g *Generator) RollupConfig() *types.RollupConfig { return g.rollupConfig }

// verifySignature checks [signature] against the lock of [script].
func (g *Generator) verifySignature(script *types.Script, signature []byte, message ids.ID) error {
	valid, err := g.locks.VerifySignature(script.CodeHash, script.Args, signature, message)
	switch {
	case errors.Is(err, ErrUnknownLockScript):
		return newError(UnknownLockScript, err)
	case err != nil:
		return newError(AuthenticationFailed, err)
	case !valid:
		return newError(AuthenticationFailed, ErrInvalidSignature)
	default:
		return nil
	}
}

func checkNonce(st state.Reader, id uint32, nonce uint32) error {
	expected, err := state.GetNonce(st, id)
	if err != nil {
		return err
	}
	if expected != nonce {
		return newError(InvalidNonce, fmt.Errorf("account %d: expected %d, got %d", id, expected, nonce))
	}
	return nil
}

// senderScript resolves the script of [id]; an unknown sender cannot be
// authenticated.
func senderScript(st state.Reader, id uint32) (*types.Script, error) {
	_, script, err := state.GetAccountScript(st, id)
	if errors.Is(err, state.ErrUnknownAccount) {
		return nil, newError(AuthenticationFailed, err)
	}
	return script, err
}

// VerifyTransaction checks the signature and nonce of [tx] without running it.
func (g *Generator) VerifyTransaction(st state.Reader, tx *types.L2Transaction) error {
	script, err := senderScript(st, tx.Raw.FromID)
	if err != nil {
		return err
	}
	if err := g.verifySignature(script, tx.Signature, tx.Raw.SigningMessage(g.rollupScriptHash)); err != nil {
		return err
	}
	return checkNonce(st, tx.Raw.FromID, tx.Raw.Nonce)
}

// Execute runs [tx] on [st]. A *Error means [tx] is invalid on [st]; any
// other error comes from [st].
func (g *Generator) Execute(st state.Reader, info types.BlockInfo, tx *types.L2Transaction) (*RunResult, error) {
	if err := g.VerifyTransaction(st, tx); err != nil {
		return nil, err
	}

	_, toScript, err := state.GetAccountScript(st, tx.Raw.ToID)
	if errors.Is(err, state.ErrUnknownAccount) {
		return nil, newError(Unknown, err)
	}
	if err != nil {
		return nil, err
	}
	backend, ok := g.backends.Get(toScript.CodeHash)
	if !ok {
		return nil, newError(Unknown, fmt.Errorf("%w: %s", ErrBackendNotFound, toScript.CodeHash))
	}

	tracked := newTrackedState(st)
	ctx := &RunContext{
		state:        tracked,
		info:         info,
		sender:       tx.Raw.FromID,
		accountID:    tx.Raw.ToID,
		backends:     g.backends,
		rollupConfig: g.rollupConfig,
	}
	returnData, err := backend.Run(ctx, tx.Raw.Args)
	if tracked.err != nil {
		return nil, tracked.err
	}
	if err != nil {
		return nil, classify(err)
	}

	if err := state.SetNonce(tracked, tx.Raw.FromID, tx.Raw.Nonce+1); err != nil {
		return nil, err
	}
	return tracked.result(returnData, ctx.logs), nil
}

// classify maps a backend failure to a rule violation.
func classify(err error) error {
	var genErr *Error
	switch {
	case errors.As(err, &genErr):
		return genErr
	case errors.Is(err, state.ErrInsufficientBalance):
		return newError(InsufficientBalance, err)
	default:
		return newError(InvalidExitCode, err)
	}
}

// VerifyWithdrawal checks the signature and nonce of [req] without running it.
func (g *Generator) VerifyWithdrawal(st state.Reader, req *types.WithdrawalRequest) (uint32, error) {
	id, ok, err := state.GetAccountIDByScriptHash(st, req.Raw.AccountScriptHash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newError(AuthenticationFailed, fmt.Errorf("%w: script %s", state.ErrUnknownAccount, req.Raw.AccountScriptHash))
	}
	script, err := st.GetScript(req.Raw.AccountScriptHash)
	if err != nil {
		return 0, err
	}
	if err := g.verifySignature(script, req.Signature, req.Raw.SigningMessage(g.rollupScriptHash)); err != nil {
		return 0, err
	}
	return id, checkNonce(st, id, req.Raw.Nonce)
}

// ExecuteWithdrawal burns the withdrawn amount on [st].
func (g *Generator) ExecuteWithdrawal(st state.Reader, info types.BlockInfo, req *types.WithdrawalRequest) (*RunResult, error) {
	id, err := g.VerifyWithdrawal(st, req)
	if err != nil {
		return nil, err
	}

	_, sudtScript, err := state.GetAccountScript(st, req.Raw.SUDTID)
	if errors.Is(err, state.ErrUnknownAccount) {
		return nil, newError(Unknown, err)
	}
	if err != nil {
		return nil, err
	}
	if sudtScript.CodeHash != g.rollupConfig.SUDTCodeHash {
		return nil, newError(Unknown, fmt.Errorf("%w: %d", ErrNotSUDT, req.Raw.SUDTID))
	}

	tracked := newTrackedState(st)
	err = state.BurnBalance(tracked, req.Raw.SUDTID, id, uint256.NewInt(req.Raw.Amount))
	if tracked.err != nil {
		return nil, tracked.err
	}
	if err != nil {
		return nil, classify(err)
	}
	if err := state.SetNonce(tracked, id, req.Raw.Nonce+1); err != nil {
		return nil, err
	}
	return tracked.result(nil, nil), nil
}

// ExecuteDeposit credits [deposit] on a tracked view of [st], creating the
// account when it is missing.
func (g *Generator) ExecuteDeposit(st state.Reader, deposit *types.DepositionRequest) (*RunResult, error) {
	tracked := newTrackedState(st)
	err := g.deposit(tracked, deposit)
	if tracked.err != nil {
		return nil, tracked.err
	}
	if err != nil {
		return nil, err
	}
	return tracked.result(nil, nil), nil
}

func (g *Generator) deposit(st state.State, deposit *types.DepositionRequest) error {
	id, ok, err := state.GetAccountIDByScriptHash(st, deposit.Script.Hash())
	if err != nil {
		return err
	}
	if !ok {
		if err := checkNewAccountScript(g.rollupConfig, g.backends, &deposit.Script); err != nil {
			return err
		}
		if id, err = state.CreateAccount(st, &deposit.Script); err != nil {
			return err
		}
	}
	err = state.MintBalance(st, types.CKBSUDTAccountID, id, uint256.NewInt(deposit.Amount))
	if errors.Is(err, state.ErrBalanceOverflow) {
		return newError(InvalidExitCode, err)
	}
	return err
}

// ApplyDeposits credits the deposits in order. A rejected deposit leaves no
// trace in [st] and is returned; later deposits still apply.
func (g *Generator) ApplyDeposits(st state.State, deposits []types.DepositionRequest) ([]types.DepositionRequest, error) {
	var rejected []types.DepositionRequest
	for i := range deposits {
		run, err := g.ExecuteDeposit(st, &deposits[i])
		if IsRejection(err) {
			rejected = append(rejected, deposits[i])
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := ApplyRunResult(st, run); err != nil {
			return nil, err
		}
	}
	return rejected, nil
}
