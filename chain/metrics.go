// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	syncEvents     *prometheus.CounterVec
	blocksApplied  prometheus.Counter
	blocksReverted prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		syncEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_sync_events",
			Help: "Number of sync batches by outcome",
		}, []string{"event"}),
		blocksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollup_blocks_applied",
			Help: "Number of L2 blocks applied from L1",
		}),
		blocksReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollup_blocks_reverted",
			Help: "Number of tip rollbacks caused by L1 reverts",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.syncEvents),
		registerer.Register(m.blocksApplied),
		registerer.Register(m.blocksReverted),
	)
	return m, errs.Err
}
