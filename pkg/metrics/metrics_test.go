package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(submissions.WithLabelValues("product", OutcomeRejected))
	IncSubmission("product", OutcomeRejected)
	assert.Equal(t, before+1, testutil.ToFloat64(submissions.WithLabelValues("product", OutcomeRejected)))

	SetSessionsActive(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(sessionsActive))

	IncOrderStored("service")
	assert.GreaterOrEqual(t, testutil.ToFloat64(ordersStored.WithLabelValues("service")), float64(1))

	ObserveHTTP("/healthz", "200", 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(httpDuration))
}
