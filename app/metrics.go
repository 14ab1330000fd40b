package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	txTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dao",
		Name:      "txs_total",
		Help:      "Transactions executed in finalized blocks, labeled by type and result code",
	}, []string{"type", "code"})

	checkTxTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dao",
		Name:      "check_txs_total",
		Help:      "Transactions seen by CheckTx, labeled by acceptance",
	}, []string{"accepted"})

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dao",
		Name:      "proposal_resolutions_total",
		Help:      "Resolved proposals, labeled by outcome",
	}, []string{"status"})

	finalizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dao",
		Name:      "finalize_block_duration_seconds",
		Help:      "Latency distribution of FinalizeBlock",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)
