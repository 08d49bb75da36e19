// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mempool holds transactions and withdrawals that are valid on top
// of the current tip.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/set"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/rollupvm/generator"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

var ErrEntryKindConflict = errors.New("account already has pending entries of the other kind")

// Entry is the pending work of one account. At most one of [Txs] and
// [Withdrawals] is non-empty.
type Entry struct {
	AccountID   uint32
	Txs         []*types.L2Transaction
	Withdrawals []*types.WithdrawalRequest
}

func (e *Entry) len() int { return len(e.Txs) + len(e.Withdrawals) }

// Mempool validates every entry against the tip plus the entries admitted
// before it. All methods take the pool lock.
type Mempool struct {
	lock sync.Mutex

	store *store.Store
	gen   *generator.Generator
	log   log.Logger
	size  prometheus.Gauge

	info    types.BlockInfo
	entries map[uint32]*Entry
	// accounts in order of first admission
	order []uint32
	// overlay is the tip with every admitted entry applied. It is never
	// committed.
	overlay *store.Transaction
}

func New(s *store.Store, gen *generator.Generator, logger log.Logger, registerer prometheus.Registerer) (*Mempool, error) {
	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rollup_mempool_size",
		Help: "Number of pending transactions and withdrawals",
	})
	if err := registerer.Register(size); err != nil {
		return nil, err
	}
	tip := s.TipVersion()
	return &Mempool{
		store:   s,
		gen:     gen,
		log:     logger,
		size:    size,
		info:    types.BlockInfo{Number: tip.BlockCount},
		entries: make(map[uint32]*Entry),
		overlay: s.BeginTransaction(),
	}, nil
}

func (m *Mempool) entry(id uint32) *Entry {
	entry, ok := m.entries[id]
	if !ok {
		entry = &Entry{AccountID: id}
		m.entries[id] = entry
		m.order = append(m.order, id)
	}
	return entry
}

// applyTx dry-runs [tx] on the overlay and keeps its writes.
func (m *Mempool) applyTx(tx *types.L2Transaction) error {
	result, err := m.gen.Execute(m.overlay, m.info, tx)
	if err != nil {
		return err
	}
	return generator.ApplyRunResult(m.overlay, result)
}

func (m *Mempool) applyWithdrawal(req *types.WithdrawalRequest) error {
	result, err := m.gen.ExecuteWithdrawal(m.overlay, m.info, req)
	if err != nil {
		return err
	}
	return generator.ApplyRunResult(m.overlay, result)
}

// PushTransaction admits [tx] if it is valid after the pending entries.
func (m *Mempool) PushTransaction(tx *types.L2Transaction) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if entry, ok := m.entries[tx.Raw.FromID]; ok && len(entry.Withdrawals) > 0 {
		return fmt.Errorf("%w: account %d", ErrEntryKindConflict, tx.Raw.FromID)
	}
	if err := m.applyTx(tx); err != nil {
		return err
	}
	entry := m.entry(tx.Raw.FromID)
	entry.Txs = append(entry.Txs, tx)
	m.size.Inc()
	m.log.Debug("transaction admitted", "hash", tx.Hash(), "from", tx.Raw.FromID, "nonce", tx.Raw.Nonce)
	return nil
}

// PushWithdrawal admits [req] if it is valid after the pending entries.
func (m *Mempool) PushWithdrawal(req *types.WithdrawalRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	id, known, err := state.GetAccountIDByScriptHash(m.overlay, req.Raw.AccountScriptHash)
	if err != nil {
		return err
	}
	if entry, ok := m.entries[id]; known && ok && len(entry.Txs) > 0 {
		return fmt.Errorf("%w: account %d", ErrEntryKindConflict, id)
	}
	// unknown accounts are rejected here
	if err := m.applyWithdrawal(req); err != nil {
		return err
	}
	entry := m.entry(id)
	entry.Withdrawals = append(entry.Withdrawals, req)
	m.size.Inc()
	m.log.Debug("withdrawal admitted", "hash", req.Hash(), "account", id, "nonce", req.Raw.Nonce)
	return nil
}

// Pending returns a copy of every entry, accounts in first admission order
// and entries in admission order.
func (m *Mempool) Pending() []Entry {
	m.lock.Lock()
	defer m.lock.Unlock()

	pending := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		entry := m.entries[id]
		pending = append(pending, Entry{
			AccountID:   id,
			Txs:         append([]*types.L2Transaction(nil), entry.Txs...),
			Withdrawals: append([]*types.WithdrawalRequest(nil), entry.Withdrawals...),
		})
	}
	return pending
}

func (m *Mempool) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.len()
}

func (m *Mempool) len() int {
	n := 0
	for _, entry := range m.entries {
		n += entry.len()
	}
	return n
}

// NotifyNewTip re-validates every entry on the new tip. The first entry of
// an account that fails is dropped together with every later entry of that
// account.
func (m *Mempool) NotifyNewTip() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.info.Number = m.store.TipVersion().BlockCount
	return m.revalidate()
}

// SetNextBlockContext sets the block the pending entries are validated for.
func (m *Mempool) SetNextBlockContext(info types.BlockInfo) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.info = info
	return m.revalidate()
}

// Drop removes the given entries, and every later entry of their accounts.
func (m *Mempool) Drop(txs []*types.L2Transaction, withdrawals []*types.WithdrawalRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if len(txs) == 0 && len(withdrawals) == 0 {
		return nil
	}
	dropped := set.NewSet[ids.ID](len(txs) + len(withdrawals))
	for _, tx := range txs {
		dropped.Add(tx.Hash())
	}
	for _, req := range withdrawals {
		dropped.Add(req.Hash())
	}
	for _, entry := range m.entries {
		for i, tx := range entry.Txs {
			if dropped.Contains(tx.Hash()) {
				entry.Txs = entry.Txs[:i]
				break
			}
		}
		for i, req := range entry.Withdrawals {
			if dropped.Contains(req.Hash()) {
				entry.Withdrawals = entry.Withdrawals[:i]
				break
			}
		}
	}
	return m.revalidate()
}

// revalidate rebuilds the overlay from the tip. Entries whose nonce was
// already consumed on the tip are included in a block and leave quietly.
// Only a failure of the store is returned.
func (m *Mempool) revalidate() error {
	m.overlay.Discard()
	m.overlay = m.store.BeginTransaction()

	included, purged := 0, 0
	order := make([]uint32, 0, len(m.order))
	for _, id := range m.order {
		entry := m.entries[id]
		nonce, err := state.GetNonce(m.overlay, id)
		if err != nil {
			return err
		}

		txs := entry.Txs[:0]
		for i, tx := range entry.Txs {
			if tx.Raw.Nonce < nonce {
				included++
				continue
			}
			err := m.applyTx(tx)
			if err == nil {
				txs = append(txs, tx)
				continue
			}
			if !generator.IsRejection(err) {
				return err
			}
			m.log.Debug("purging transactions", "account", id, "hash", tx.Hash(), "reason", err)
			purged += len(entry.Txs) - i
			break
		}
		entry.Txs = txs

		withdrawals := entry.Withdrawals[:0]
		for i, req := range entry.Withdrawals {
			if req.Raw.Nonce < nonce {
				included++
				continue
			}
			err := m.applyWithdrawal(req)
			if err == nil {
				withdrawals = append(withdrawals, req)
				continue
			}
			if !generator.IsRejection(err) {
				return err
			}
			m.log.Debug("purging withdrawals", "account", id, "hash", req.Hash(), "reason", err)
			purged += len(entry.Withdrawals) - i
			break
		}
		entry.Withdrawals = withdrawals

		if entry.len() == 0 {
			delete(m.entries, id)
			continue
		}
		order = append(order, id)
	}
	m.order = order

	size := m.len()
	m.size.Set(float64(size))
	if included > 0 || purged > 0 {
		m.log.Info("mempool revalidated", "included", included, "purged", purged, "pending", size)
	}
	return nil
}
