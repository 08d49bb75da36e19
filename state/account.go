// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"

	"github.com/ava-labs/rollupvm/types"
)

var one = uint256.NewInt(1)

func GetNonce(r Reader, id uint32) (uint32, error) {
	value, err := r.GetRaw(AccountFieldKey(id, FieldNonce))
	if err != nil {
		return 0, err
	}
	nonce := ValueUint256(value)
	if !nonce.IsUint64() || nonce.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("%w: nonce of account %d", ErrCorruptedValue, id)
	}
	return uint32(nonce.Uint64()), nil
}

func SetNonce(s State, id uint32, nonce uint32) error {
	return s.UpdateRaw(AccountFieldKey(id, FieldNonce), Uint256Value(uint256.NewInt(uint64(nonce))))
}

// GetScriptHash returns the zero hash for an unknown account.
func GetScriptHash(r Reader, id uint32) (ids.ID, error) {
	return r.GetRaw(AccountFieldKey(id, FieldScriptHash))
}

// GetAccountIDByScriptHash reports whether an account owns [scriptHash].
func GetAccountIDByScriptHash(r Reader, scriptHash ids.ID) (uint32, bool, error) {
	value, err := r.GetRaw(ScriptHashToIDKey(scriptHash))
	if err != nil {
		return 0, false, err
	}
	if value == ids.Empty {
		return 0, false, nil
	}
	id, ok := parseAccountIDValue(value)
	if !ok {
		return 0, false, fmt.Errorf("%w: account id of %s", ErrCorruptedValue, scriptHash)
	}
	return id, true, nil
}

// GetAccountScript resolves the script of account [id].
func GetAccountScript(r Reader, id uint32) (ids.ID, *types.Script, error) {
	scriptHash, err := GetScriptHash(r, id)
	if err != nil {
		return ids.Empty, nil, err
	}
	if scriptHash == ids.Empty {
		return ids.Empty, nil, fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	script, err := r.GetScript(scriptHash)
	if err != nil {
		return ids.Empty, nil, err
	}
	return scriptHash, script, nil
}

// CreateAccount assigns the next sequential id to [script].
func CreateAccount(s State, script *types.Script) (uint32, error) {
	scriptHash := script.Hash()
	if _, exists, err := GetAccountIDByScriptHash(s, scriptHash); err != nil {
		return 0, err
	} else if exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicatedScriptHash, scriptHash)
	}

	id, err := s.GetAccountCount()
	if err != nil {
		return 0, err
	}
	if err := s.UpdateRaw(AccountFieldKey(id, FieldScriptHash), scriptHash); err != nil {
		return 0, err
	}
	if err := s.UpdateRaw(ScriptHashToIDKey(scriptHash), accountIDValue(id)); err != nil {
		return 0, err
	}
	if err := s.InsertScript(scriptHash, script); err != nil {
		return 0, err
	}
	return id, s.SetAccountCount(id + 1)
}

func GetBalance(r Reader, sudtID, accountID uint32) (*uint256.Int, error) {
	value, err := r.GetRaw(BalanceKey(sudtID, accountID))
	if err != nil {
		return nil, err
	}
	return ValueUint256(value), nil
}

func MintBalance(s State, sudtID, accountID uint32, amount *uint256.Int) error {
	balance, err := GetBalance(s, sudtID, accountID)
	if err != nil {
		return err
	}
	if _, overflow := balance.AddOverflow(balance, amount); overflow {
		return fmt.Errorf("%w: account %d in sudt %d", ErrBalanceOverflow, accountID, sudtID)
	}
	return s.UpdateRaw(BalanceKey(sudtID, accountID), Uint256Value(balance))
}

func BurnBalance(s State, sudtID, accountID uint32, amount *uint256.Int) error {
	balance, err := GetBalance(s, sudtID, accountID)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return fmt.Errorf("%w: account %d has %s, needs %s", ErrInsufficientBalance, accountID, balance.ToBig(), amount.ToBig())
	}
	balance.Sub(balance, amount)
	return s.UpdateRaw(BalanceKey(sudtID, accountID), Uint256Value(balance))
}

// StoreData saves [data] content-addressed and commits its hash to the tree.
func StoreData(s State, data []byte) (ids.ID, error) {
	dataHash := types.Hash(data)
	if err := s.InsertData(dataHash, data); err != nil {
		return ids.Empty, err
	}
	return dataHash, s.UpdateRaw(DataHashKey(dataHash), Uint256Value(one))
}
