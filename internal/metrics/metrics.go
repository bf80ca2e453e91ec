package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Harvest pipeline metrics
	HarvestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feerouter_harvest_runs_total",
			Help: "Total number of harvest pipeline runs",
		},
		[]string{"outcome"},
	)

	HarvestSources = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feerouter_harvest_sources",
		Help:    "Number of source accounts swept per harvest run",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	HarvestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feerouter_harvest_duration_seconds",
		Help:    "Harvest pipeline duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// Distribution metrics
	Distributions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feerouter_distributions_total",
			Help: "Total number of distribution passes",
		},
		[]string{"outcome"},
	)

	DistributedAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feerouter_distributed_base_units_total",
			Help: "Total base units routed to each recipient",
		},
		[]string{"recipient"},
	)

	GrossUpFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feerouter_grossup_fallbacks_total",
		Help: "Distribution passes where gross-up would overdraw the vault and raw targets were used",
	})

	RewardsSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feerouter_rewards_sync_failures_total",
		Help: "Distribution transactions that failed while carrying the rewards sync instruction",
	})

	// Live balances, updated by the withheld watcher
	VaultBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feerouter_vault_balance_base_units",
		Help: "Routing vault balance in base units",
	})

	MintWithheldAmount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feerouter_mint_withheld_base_units",
		Help: "Withheld fees pooled on the mint in base units",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feerouter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feerouter_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
