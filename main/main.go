// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/version"
	"github.com/spf13/cobra"

	"github.com/ava-labs/rollupvm/config"
	"github.com/ava-labs/rollupvm/genesis"
)

const Name = "rollupvm"

var Version = &version.Semantic{
	Major: 0,
	Minor: 1,
	Patch: 0,
}

func main() {
	rootCmd := &cobra.Command{
		Use:           Name,
		Short:         "Optimistic rollup node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	fs := config.BuildFlagSet()
	rootCmd.PersistentFlags().AddFlagSet(fs)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the node and serve JSON-RPC",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := loadConfig(fs)
				if err != nil {
					return err
				}
				return run(cfg)
			},
		},
		&cobra.Command{
			Use:   "genesis",
			Short: "Print the genesis block hash of the configured rollup",
			RunE: func(*cobra.Command, []string) error {
				cfg, err := loadConfig(fs)
				if err != nil {
					return err
				}
				g, err := genesis.BuildGenesis(&cfg.Genesis, &cfg.Chain.RollupConfig, cfg.Chain.RollupScriptHash())
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", g.Block.Hash().Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version and quit",
			Run: func(*cobra.Command, []string) {
				fmt.Printf("%s@%s\n", Name, Version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%s: %s\n", Name, err)
		os.Exit(1)
	}
}
