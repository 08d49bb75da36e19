// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/rollupvm/config"
	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/types"
)

func TestNewLockManage(t *testing.T) {
	require := require.New(t)

	m, err := newLockManage([]config.LockConfig{
		{CodeHash: types.AlwaysSuccessCodeHash, Algorithm: config.AlwaysSuccessAlgorithm},
		{CodeHash: types.Secp256k1CodeHash, Algorithm: config.Secp256k1Algorithm},
	})
	require.NoError(err)
	_, err = m.Get(types.AlwaysSuccessCodeHash)
	require.NoError(err)
	_, err = m.Get(types.Secp256k1CodeHash)
	require.NoError(err)
	_, err = m.Get(ids.GenerateTestID())
	require.ErrorIs(err, generator.ErrUnknownLockScript)

	_, err = newLockManage([]config.LockConfig{{Algorithm: "rsa"}})
	require.ErrorIs(err, errUnknownAlgorithm)
}

func TestOpenDatabase(t *testing.T) {
	require := require.New(t)

	db, err := openDatabase(&config.StoreConfig{}, prometheus.NewRegistry())
	require.NoError(err)
	require.NoError(db.Put([]byte{1}, []byte{2}))
	require.NoError(db.Close())

	db, err = openDatabase(&config.StoreConfig{Path: t.TempDir()}, prometheus.NewRegistry())
	require.NoError(err)
	require.NoError(db.Put([]byte{1}, []byte{2}))
	value, err := db.Get([]byte{1})
	require.NoError(err)
	require.Equal([]byte{2}, value)
	require.NoError(db.Close())
}

func TestSetupLogging(t *testing.T) {
	require.NoError(t, setupLogging("debug"))
	require.Error(t, setupLogging("loud"))
}
