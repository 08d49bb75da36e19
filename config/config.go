// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the node configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/viper"

	"github.com/ava-labs/rollupvm/types"
)

const (
	AlwaysSuccessAlgorithm = "always-success"
	Secp256k1Algorithm     = "secp256k1"

	DefaultRPCListen = "127.0.0.1:3000"
	DefaultLogLevel  = "info"
)

var (
	errBadHashLength = errors.New("hash must be 32 bytes")
	errBadHashType   = errors.New("hash type must be \"data\" or \"type\"")
	errBadAlgorithm  = errors.New("unknown lock algorithm")
)

// Config is immutable once loaded.
type Config struct {
	Chain      ChainConfig
	Consensus  ConsensusConfig
	Genesis    GenesisConfig
	Aggregator *AggregatorConfig
	RPC        RPCConfig
	Store      StoreConfig
	Log        LogConfig
	Locks      []LockConfig
}

type ChainConfig struct {
	RollupTypeScript types.Script
	RollupConfig     types.RollupConfig
}

// RollupScriptHash identifies the rollup on L1.
func (c *ChainConfig) RollupScriptHash() ids.ID {
	return c.RollupTypeScript.Hash()
}

type ConsensusConfig struct {
	AggregatorID uint32
}

// GenesisConfig is everything the genesis block derives from.
type GenesisConfig struct {
	InitialAggregatorScript types.Script
	InitialDeposition       uint64
	Timestamp               uint64
}

// AggregatorConfig is set on nodes that produce blocks.
type AggregatorConfig struct {
	AccountID uint32
	// MaxWithdrawalCapacity caps the amount withdrawn per block, zero for no
	// cap.
	MaxWithdrawalCapacity uint64
}

type RPCConfig struct {
	Listen string
}

type StoreConfig struct {
	// Path is empty for an in-memory store.
	Path string
}

type LogConfig struct {
	Level string
}

type LockConfig struct {
	CodeHash  ids.ID
	Algorithm string
}

// The raw shapes are what the config file holds: hashes and bytes are 0x
// prefixed hex strings.
type rawScript struct {
	CodeHash string `mapstructure:"code_hash"`
	HashType string `mapstructure:"hash_type"`
	Args     string `mapstructure:"args"`
}

type rawRollupConfig struct {
	ChainID                  uint64   `mapstructure:"chain_id"`
	FinalityBlocks           uint64   `mapstructure:"finality_blocks"`
	MetaContractCodeHash     string   `mapstructure:"meta_contract_code_hash"`
	SUDTCodeHash             string   `mapstructure:"sudt_code_hash"`
	AllowedEOALockCodeHashes []string `mapstructure:"allowed_eoa_lock_code_hashes"`
}

type rawConfig struct {
	Chain struct {
		RollupTypeScript rawScript       `mapstructure:"rollup_type_script"`
		RollupConfig     rawRollupConfig `mapstructure:"rollup_config"`
	} `mapstructure:"chain"`
	Consensus struct {
		AggregatorID uint32 `mapstructure:"aggregator_id"`
	} `mapstructure:"consensus"`
	Genesis struct {
		InitialAggregatorScript rawScript `mapstructure:"initial_aggregator_script"`
		InitialDeposition       uint64    `mapstructure:"initial_deposition"`
		Timestamp               uint64    `mapstructure:"timestamp"`
	} `mapstructure:"genesis"`
	Aggregator *struct {
		AccountID             uint32 `mapstructure:"account_id"`
		MaxWithdrawalCapacity uint64 `mapstructure:"max_withdrawal_capacity"`
	} `mapstructure:"aggregator"`
	RPC struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"rpc"`
	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Locks []struct {
		CodeHash  string `mapstructure:"code_hash"`
		Algorithm string `mapstructure:"algorithm"`
	} `mapstructure:"locks"`
}

// SetDefaults registers the default of every optional key.
func SetDefaults(v *viper.Viper) {
	defaults := types.DefaultRollupConfig()
	v.SetDefault(RPCListenKey, DefaultRPCListen)
	v.SetDefault(LogLevelKey, DefaultLogLevel)
	v.SetDefault(StorePathKey, "")
	v.SetDefault("chain.rollup_config.chain_id", defaults.ChainID)
	v.SetDefault("chain.rollup_config.finality_blocks", defaults.FinalityBlocks)
	v.SetDefault("chain.rollup_config.meta_contract_code_hash", hexutil.Encode(defaults.MetaContractCodeHash[:]))
	v.SetDefault("chain.rollup_config.sudt_code_hash", hexutil.Encode(defaults.SUDTCodeHash[:]))
}

// LoadFile reads the config file at [path] on top of the values already
// bound to [v].
func LoadFile(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config %s: %w", path, err)
		}
	}
	return Load(v)
}

// Load decodes the config held by [v].
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	raw := rawConfig{}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, err
	}

	c := &Config{
		Consensus: ConsensusConfig{AggregatorID: raw.Consensus.AggregatorID},
		RPC:       RPCConfig{Listen: raw.RPC.Listen},
		Store:     StoreConfig{Path: raw.Store.Path},
		Log:       LogConfig{Level: raw.Log.Level},
	}
	var err error
	if c.Chain.RollupTypeScript, err = parseScript(raw.Chain.RollupTypeScript); err != nil {
		return nil, fmt.Errorf("chain.rollup_type_script: %w", err)
	}
	if c.Chain.RollupConfig, err = parseRollupConfig(raw.Chain.RollupConfig); err != nil {
		return nil, fmt.Errorf("chain.rollup_config: %w", err)
	}
	if c.Genesis.InitialAggregatorScript, err = parseScript(raw.Genesis.InitialAggregatorScript); err != nil {
		return nil, fmt.Errorf("genesis.initial_aggregator_script: %w", err)
	}
	c.Genesis.InitialDeposition = raw.Genesis.InitialDeposition
	c.Genesis.Timestamp = raw.Genesis.Timestamp
	if raw.Aggregator != nil {
		c.Aggregator = &AggregatorConfig{
			AccountID:             raw.Aggregator.AccountID,
			MaxWithdrawalCapacity: raw.Aggregator.MaxWithdrawalCapacity,
		}
	}
	for i, lock := range raw.Locks {
		codeHash, err := parseHash(lock.CodeHash)
		if err != nil {
			return nil, fmt.Errorf("locks[%d].code_hash: %w", i, err)
		}
		switch lock.Algorithm {
		case AlwaysSuccessAlgorithm, Secp256k1Algorithm:
		default:
			return nil, fmt.Errorf("locks[%d]: %w: %q", i, errBadAlgorithm, lock.Algorithm)
		}
		c.Locks = append(c.Locks, LockConfig{CodeHash: codeHash, Algorithm: lock.Algorithm})
	}
	return c, nil
}

func parseHash(s string) (ids.ID, error) {
	if s == "" {
		return ids.Empty, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return ids.Empty, err
	}
	if len(b) != len(ids.Empty) {
		return ids.Empty, fmt.Errorf("%w: got %d", errBadHashLength, len(b))
	}
	return ids.ToID(b)
}

func parseBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

func parseScript(raw rawScript) (types.Script, error) {
	codeHash, err := parseHash(raw.CodeHash)
	if err != nil {
		return types.Script{}, fmt.Errorf("code_hash: %w", err)
	}
	var hashType types.ScriptHashType
	switch raw.HashType {
	case "", "data":
		hashType = types.HashTypeData
	case "type":
		hashType = types.HashTypeType
	default:
		return types.Script{}, fmt.Errorf("%w: %q", errBadHashType, raw.HashType)
	}
	args, err := parseBytes(raw.Args)
	if err != nil {
		return types.Script{}, fmt.Errorf("args: %w", err)
	}
	return types.Script{CodeHash: codeHash, HashType: hashType, Args: args}, nil
}

func parseRollupConfig(raw rawRollupConfig) (types.RollupConfig, error) {
	c := types.RollupConfig{
		ChainID:        raw.ChainID,
		FinalityBlocks: raw.FinalityBlocks,
	}
	var err error
	if c.MetaContractCodeHash, err = parseHash(raw.MetaContractCodeHash); err != nil {
		return c, fmt.Errorf("meta_contract_code_hash: %w", err)
	}
	if c.SUDTCodeHash, err = parseHash(raw.SUDTCodeHash); err != nil {
		return c, fmt.Errorf("sudt_code_hash: %w", err)
	}
	for i, s := range raw.AllowedEOALockCodeHashes {
		codeHash, err := parseHash(s)
		if err != nil {
			return c, fmt.Errorf("allowed_eoa_lock_code_hashes[%d]: %w", i, err)
		}
		c.AllowedEOALockCodeHashes = append(c.AllowedEOALockCodeHashes, codeHash)
	}
	return c, nil
}
