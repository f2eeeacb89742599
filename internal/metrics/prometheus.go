// Package metrics provides Prometheus exporters for engine metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the reward engine.
var (
	// Counters.
	UnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_unlocks_total",
			Help: "Total number of collectible unlocks",
		},
		[]string{"kind", "outcome"},
	)

	MissionClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_mission_claims_total",
			Help: "Total number of mission claim attempts",
		},
		[]string{"cadence", "outcome"},
	)

	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_redemptions_total",
			Help: "Total number of redemption attempts",
		},
		[]string{"outcome"},
	)

	QuestStepCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_quest_step_completions_total",
			Help: "Total number of quest step completion attempts",
		},
		[]string{"outcome"},
	)

	PointsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_points_credited_total",
			Help: "Total points credited to users",
		},
		[]string{"source"},
	)

	PointsDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_merchant_points_debited_total",
			Help: "Total points debited from merchant balances",
		},
	)

	// Histograms.
	RedemptionEffectiveAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "club_redemption_effective_amount",
			Help:    "Effective points granted per redemption",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		},
	)
)

// Outcome label values shared across counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// RecordUnlock increments the unlock counter.
func RecordUnlock(kind, outcome string) {
	UnlocksTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordClaim increments the mission claim counter.
func RecordClaim(cadence, outcome string) {
	MissionClaimsTotal.WithLabelValues(cadence, outcome).Inc()
}

// RecordRedemption increments the redemption counter and, on success,
// observes the effective amount and the balance movements.
func RecordRedemption(outcome string, base, effective int64) {
	RedemptionsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		RedemptionEffectiveAmount.Observe(float64(effective))
		PointsCreditedTotal.WithLabelValues("redemption").Add(float64(effective))
		PointsDebitedTotal.Add(float64(base))
	}
}

// RecordStepCompletion increments the quest step completion counter.
func RecordStepCompletion(outcome string) {
	QuestStepCompletionsTotal.WithLabelValues(outcome).Inc()
}
