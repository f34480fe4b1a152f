package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/requests/models"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementCreated()
	m.IncrementCreated()
	m.IncrementTransition(models.StatusPending, models.StatusApproved, false)
	m.IncrementTransition(models.StatusApproved, models.StatusRejected, true)
	m.IncrementDeleted(true)
	m.IncrementRejectedTransition()
	m.ObserveUseCase("CreateRequest", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Created))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("pending", "approved", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("approved", "rejected", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deleted.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTransitions))

	count, err := testutil.GatherAndCount(reg, "solicitudes_use_case_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
