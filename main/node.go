// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/rollupvm/chain"
	"github.com/ava-labs/rollupvm/config"
	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/generator/locks"
	"github.com/ava-labs/rollupvm/genesis"
	"github.com/ava-labs/rollupvm/mempool"
	"github.com/ava-labs/rollupvm/producer"
	"github.com/ava-labs/rollupvm/service"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

const shutdownTimeout = 5 * time.Second

var errUnknownAlgorithm = errors.New("unknown lock algorithm")

func openDatabase(cfg *config.StoreConfig, registerer prometheus.Registerer) (database.Database, error) {
	if cfg.Path == "" {
		return memdb.New(), nil
	}
	return leveldb.New(cfg.Path, nil, logging.NoLog{}, "rollup_db", registerer)
}

func newLockManage(cfg []config.LockConfig) (*generator.AccountLockManage, error) {
	m := generator.NewAccountLockManage()
	for _, lock := range cfg {
		switch lock.Algorithm {
		case config.AlwaysSuccessAlgorithm:
			m.Register(lock.CodeHash, locks.AlwaysSuccess{})
		case config.Secp256k1Algorithm:
			m.Register(lock.CodeHash, locks.Secp256k1{})
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownAlgorithm, lock.Algorithm)
		}
	}
	return m, nil
}

func run(cfg *config.Config) error {
	if err := setupLogging(cfg.Log.Level); err != nil {
		return err
	}
	logger := log.New("module", "node")
	registry := prometheus.NewRegistry()

	db, err := openDatabase(&cfg.Store, registry)
	if err != nil {
		return err
	}
	s, err := store.Open(db)
	if err != nil {
		return err
	}
	defer s.Close()

	rollup := &cfg.Chain.RollupConfig
	rollupScriptHash := cfg.Chain.RollupScriptHash()
	if s.IsEmpty() {
		if err := genesis.InitGenesis(s, &cfg.Genesis, rollup, types.HeaderInfo{}, rollupScriptHash); err != nil {
			return err
		}
	}
	tip := s.TipVersion()
	logger.Info("store opened",
		"path", cfg.Store.Path,
		"tip", tip.TipBlockHash,
		"blocks", tip.BlockCount,
		"accounts", tip.AccountCount,
	)

	lockManage, err := newLockManage(cfg.Locks)
	if err != nil {
		return err
	}
	gen := generator.New(generator.NewBackendManage(rollup), lockManage, rollupScriptHash, rollup)

	pool, err := mempool.New(s, gen, log.New("module", "mempool"), registry)
	if err != nil {
		return err
	}
	c, err := chain.New(s, gen, pool, log.New("module", "chain"), registry)
	if err != nil {
		return err
	}
	var p *producer.Producer
	if cfg.Aggregator != nil {
		p = producer.New(
			&mockable.Clock{},
			s,
			gen,
			pool,
			cfg.Aggregator.AccountID,
			cfg.Aggregator.MaxWithdrawalCapacity,
			log.New("module", "producer"),
		)
	}

	handler, err := service.NewHandler(service.New(c, pool, p, log.New("module", "rpc")))
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              cfg.RPC.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("serving JSON-RPC", "listen", cfg.RPC.Listen, "producer", p != nil)
		errs <- server.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case sig := <-signals:
		logger.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
