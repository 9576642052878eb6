package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/sigscan/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_DisabledReturnNil(t *testing.T) {
	metrics.Reset()

	assert.Nil(t, NewServerMetrics())
	assert.Nil(t, NewJournalMetrics("memory"))
}

func TestServerMetrics(t *testing.T) {
	metrics.Reset()
	reg := metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewServerMetrics()
	require.NotNil(t, m)
	sm := m.(*serverMetrics)

	m.RecordConnectionAccepted()
	m.RecordConnectionAccepted()
	m.RecordConnectionClosed()
	m.SetActiveConnections(1)
	m.RecordRequest("CheckLocalFile", 3*time.Millisecond, metrics.OutcomeOK)
	m.RecordRequest("", time.Millisecond, metrics.OutcomeInvalidJSON)
	m.SetPoolStats(2, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(sm.connectionsAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.connectionsClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.activeConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.requests.WithLabelValues("CheckLocalFile", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.requests.WithLabelValues("none", metrics.OutcomeInvalidJSON)))
	assert.Equal(t, 5.0, testutil.ToFloat64(sm.poolQueued))

	n, err := testutil.GatherAndCount(reg, "sigscan_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestJournalMetrics(t *testing.T) {
	metrics.Reset()
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewJournalMetrics("badger")
	require.NotNil(t, m)
	jm := m.(*journalMetrics)

	m.ObserveOperation("record", time.Millisecond, nil)
	m.ObserveOperation("record", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(jm.operations.WithLabelValues("record", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(jm.operations.WithLabelValues("record", "error")))
}

func TestNilReceivers(t *testing.T) {
	var sm *serverMetrics
	var jm *journalMetrics

	assert.NotPanics(t, func() {
		sm.RecordConnectionAccepted()
		sm.RecordRequest("x", time.Second, metrics.OutcomeOK)
		sm.SetPoolStats(1, 1)
		jm.ObserveOperation("list", time.Second, nil)
	})
}
