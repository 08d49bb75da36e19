// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/holiman/uint256"

	"github.com/ava-labs/rollupvm/types"
)

const (
	fieldKV byte = iota
	FieldNonce
	FieldScriptHash

	prefixScriptHashToID byte = 3
	prefixDataHash       byte = 4

	accountMarker byte = 0x01
)

func u32(v uint32) []byte {
	b := make([]byte, wrappers.IntLen)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// AccountFieldKey is the tree key of a per-account field.
func AccountFieldKey(id uint32, field byte) ids.ID {
	return types.Hash(u32(id), []byte{field})
}

// AccountKey is the tree key of an entry in the storage of contract [id].
func AccountKey(id uint32, key []byte) ids.ID {
	return types.Hash(u32(id), []byte{fieldKV}, key)
}

// ScriptHashToIDKey maps a script hash back to its account id.
func ScriptHashToIDKey(scriptHash ids.ID) ids.ID {
	return types.Hash([]byte{prefixScriptHashToID}, scriptHash[:])
}

// DataHashKey marks [dataHash] as stored.
func DataHashKey(dataHash ids.ID) ids.ID {
	return types.Hash([]byte{prefixDataHash}, dataHash[:])
}

// BalanceKey locates the balance of [accountID] inside simple-UDT [sudtID].
func BalanceKey(sudtID, accountID uint32) ids.ID {
	return AccountKey(sudtID, u32(accountID))
}

// BlockKey is the block tree key of block [number].
func BlockKey(number uint64) ids.ID {
	b := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(b, number)
	return types.Hash(b)
}

// Uint256Value encodes [v] as a big-endian tree value.
func Uint256Value(v *uint256.Int) ids.ID {
	return ids.ID(v.Bytes32())
}

// ValueUint256 decodes a big-endian tree value.
func ValueUint256(v ids.ID) *uint256.Int {
	return new(uint256.Int).SetBytes32(v[:])
}

// accountIDValue stores a marker byte so that account 0 is not the zero value.
func accountIDValue(id uint32) ids.ID {
	var v ids.ID
	v[0] = accountMarker
	binary.BigEndian.PutUint32(v[28:], id)
	return v
}

func parseAccountIDValue(v ids.ID) (uint32, bool) {
	if v == ids.Empty {
		return 0, false
	}
	return binary.BigEndian.Uint32(v[28:]), v[0] == accountMarker
}
