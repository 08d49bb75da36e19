// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigFileKey = "config"
	RPCListenKey  = "rpc.listen"
	StorePathKey  = "store.path"
	LogLevelKey   = "log.level"
)

// BuildFlagSet returns the flags shared by every command. Flags override
// the config file.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rollupvm", pflag.ContinueOnError)

	fs.String(ConfigFileKey, "", "Path to the config file")
	fs.String(RPCListenKey, DefaultRPCListen, "Address the JSON-RPC server listens on")
	fs.String(StorePathKey, "", "Directory of the store database, in-memory when empty")
	fs.String(LogLevelKey, DefaultLogLevel, "Log level")

	return fs
}

// GetViper returns a viper environment bound to [fs].
func GetViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}
