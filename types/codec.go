// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codecs do serialization and deserialization
var (
	Codec codec.Manager
)

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}

	// The registration order fixes the type ids of the call unions.
	errs.Add(
		c.RegisterType(&CreateAccount{}),
		c.RegisterType(&SUDTQuery{}),
		c.RegisterType(&SUDTTransfer{}),
	)

	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// Marshal encodes [v] with the current codec version.
func Marshal(v interface{}) ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

// Unmarshal decodes [b] into [v].
func Unmarshal(b []byte, v interface{}) error {
	_, err := Codec.Unmarshal(b, v)
	return err
}

// MustMarshal is Marshal for values built by this process.
func MustMarshal(v interface{}) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseBlock decodes a block from its codec bytes.
func ParseBlock(b []byte) (*L2Block, error) {
	blk := &L2Block{}
	if err := Unmarshal(b, blk); err != nil {
		return nil, err
	}
	return blk, nil
}
