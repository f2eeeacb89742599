package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordUnlock(t *testing.T) {
	UnlocksTotal.Reset()

	RecordUnlock("location", OutcomeSuccess)
	RecordUnlock("location", OutcomeSuccess)
	RecordUnlock("event", OutcomeRejected)

	count := testutil.ToFloat64(UnlocksTotal.WithLabelValues("location", OutcomeSuccess))
	if count != 2 {
		t.Errorf("Expected location success count = 2, got %f", count)
	}

	count = testutil.ToFloat64(UnlocksTotal.WithLabelValues("event", OutcomeRejected))
	if count != 1 {
		t.Errorf("Expected event rejected count = 1, got %f", count)
	}
}

func TestRecordClaim(t *testing.T) {
	MissionClaimsTotal.Reset()

	RecordClaim("daily", OutcomeSuccess)
	RecordClaim("daily", OutcomeRejected)

	count := testutil.ToFloat64(MissionClaimsTotal.WithLabelValues("daily", OutcomeSuccess))
	if count != 1 {
		t.Errorf("Expected daily success count = 1, got %f", count)
	}
}

func TestRecordRedemption(t *testing.T) {
	RedemptionsTotal.Reset()
	PointsCreditedTotal.Reset()

	RecordRedemption(OutcomeSuccess, 100, 200)
	RecordRedemption(OutcomeRejected, 0, 0)

	count := testutil.ToFloat64(RedemptionsTotal.WithLabelValues(OutcomeSuccess))
	if count != 1 {
		t.Errorf("Expected success count = 1, got %f", count)
	}

	// Only successful redemptions move points.
	credited := testutil.ToFloat64(PointsCreditedTotal.WithLabelValues("redemption"))
	if credited != 200 {
		t.Errorf("Expected 200 points credited, got %f", credited)
	}
}

func TestRecordStepCompletion(t *testing.T) {
	QuestStepCompletionsTotal.Reset()

	RecordStepCompletion(OutcomeSuccess)
	RecordStepCompletion(OutcomeSuccess)

	count := testutil.ToFloat64(QuestStepCompletionsTotal.WithLabelValues(OutcomeSuccess))
	if count != 2 {
		t.Errorf("Expected completion count = 2, got %f", count)
	}
}

func TestMetricsRegistration(t *testing.T) {
	metrics := []prometheus.Collector{
		UnlocksTotal,
		MissionClaimsTotal,
		RedemptionsTotal,
		QuestStepCompletionsTotal,
		PointsCreditedTotal,
		PointsDebitedTotal,
		RedemptionEffectiveAmount,
	}

	for i, metric := range metrics {
		if metric == nil {
			t.Errorf("Metric %d is nil", i)
		}
	}
}
