// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package locks

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/rollupvm/generator"
)

var _ generator.LockAlgorithm = Secp256k1{}

// Secp256k1 checks recoverable secp256k1 signatures against an Ethereum
// address held in the lock args.
type Secp256k1 struct{}

func (Secp256k1) VerifySignature(lockArgs, signature []byte, message ids.ID) (bool, error) {
	if len(lockArgs) != common.AddressLength {
		return false, &generator.LockAlgorithmError{
			Reason: fmt.Sprintf("lock args must be an address, got %d bytes", len(lockArgs)),
		}
	}
	if len(signature) != crypto.SignatureLength {
		return false, &generator.LockAlgorithmError{
			Reason: fmt.Sprintf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature)),
		}
	}
	pub, err := crypto.SigToPub(message[:], signature)
	if err != nil {
		// The signature is well formed but recovers no key.
		return false, nil
	}
	address := crypto.PubkeyToAddress(*pub)
	return bytes.Equal(address[:], lockArgs), nil
}

// Sign produces a signature Secp256k1 accepts for the address of [key].
func Sign(key *ecdsa.PrivateKey, message ids.ID) ([]byte, error) {
	return crypto.Sign(message[:], key)
}

// LockArgs returns the lock args owned by [key].
func LockArgs(key *ecdsa.PrivateKey) []byte {
	return crypto.PubkeyToAddress(key.PublicKey).Bytes()
}
