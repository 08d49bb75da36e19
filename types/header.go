// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
)

// HeaderInfo locates an L1 transaction.
type HeaderInfo struct {
	Number    uint64 `serialize:"true" json:"number"`
	BlockHash ids.ID `serialize:"true" json:"blockHash"`
	TxIndex   uint32 `serialize:"true" json:"txIndex"`
}
