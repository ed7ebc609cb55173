package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	// Arrange
	m := New()

	// Act
	m.ObserveClock("clock-in", ResultSuccess)
	m.ObserveClock("clock-in", ResultSuccess)
	m.ObserveClock("clock-out", ResultRejected)
	m.ObserveValidationFailure("overlap")
	m.ObserveLockContention()
	m.ObserveReport("payroll", time.Now())

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClockOperations.WithLabelValues("clock-in", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClockOperations.WithLabelValues("clock-out", ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("overlap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockContention))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReportDuration))
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	first := New()
	second := New()

	first.ObserveLockContention()

	assert.Equal(t, 0.0, testutil.ToFloat64(second.LockContention))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveClock("pause", ResultSuccess)
	m.ObserveLockContention()
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveClock("toggle", ResultSuccess)
	path := filepath.Join(t.TempDir(), "ts.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `timesheet_clock_operations_total{operation="toggle",result="success"} 1`)
}
