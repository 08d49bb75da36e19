// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"

	"github.com/ava-labs/rollupvm/config"
)

// loadConfig reads the config file named by the flags, then applies the
// flags over it.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	v, err := config.GetViper(fs)
	if err != nil {
		return nil, err
	}
	return config.LoadFile(v, v.GetString(config.ConfigFileKey))
}

// setupLogging routes the root logger to stderr at [level].
func setupLogging(level string) error {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))
	return nil
}
