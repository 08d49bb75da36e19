// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/ids"
	"golang.org/x/crypto/blake2b"
)

// Hash returns the blake2b-256 digest of the concatenation of [parts].
func Hash(parts ...[]byte) ids.ID {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	for _, part := range parts {
		_, _ = h.Write(part)
	}
	var out ids.ID
	copy(out[:], h.Sum(nil))
	return out
}

// MerkleRoot computes a binary merkle root over [leaves].
// An empty list has the zero root. A node without a sibling is promoted
// unchanged to the next level.
func MerkleRoot(leaves []ids.ID) ids.ID {
	if len(leaves) == 0 {
		return ids.Empty
	}
	level := make([]ids.ID, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([]ids.ID, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, Hash(level[i][:], level[i+1][:]))
		}
		level = next
	}
	return level[0]
}
