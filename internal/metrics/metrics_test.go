package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", metrics.Outcome(nil))
	assert.Equal(t, "BA203", metrics.Outcome(autherr.IncorrectNonce("a", "b")))
	assert.Equal(t, "BA000", metrics.Outcome(errors.New("plain")))
}

func TestObserveFlow_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveFlow("createAccount", time.Now(), nil)
	m.ObserveFlow("createAccount", time.Now(), autherr.IncorrectNonce("a", "b"))
	m.ObserveRoundTrip("/account/create", 200, time.Millisecond)
	m.Retry()

	n, err := testutil.GatherAndCount(reg, "betterauth_flow_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveFlow("x", time.Now(), nil)
	m.ObserveRoundTrip("/x", 0, 0)
	m.Retry()
	m.ObserveServer("/x", nil)
}
