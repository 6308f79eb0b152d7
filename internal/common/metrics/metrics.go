// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK            = "ok"
	OutcomeCooldown      = "cooldown"
	OutcomePoolExhausted = "pool_exhausted"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

var (
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "claims_total",
		Help:      "Claim attempts by outcome.",
	}, []string{"outcome"})

	ReferralsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "referrals_total",
		Help:      "Referral redemptions by outcome.",
	}, []string{"outcome"})

	PoolUsed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "pool_used",
		Help:      "Points reserved from each tier pool.",
	}, []string{"tier"})

	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "tasks_total",
		Help:      "Completed tasks by category.",
	}, []string{"category"})
)

// ObservePool records the used amount of one tier pool.
func ObservePool(level int, used int64) {
	PoolUsed.WithLabelValues(strconv.Itoa(level)).Set(float64(used))
}
