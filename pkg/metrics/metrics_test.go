package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestPoolMetricsSetWalletCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool := NewPoolMetrics(reg)

	pool.SetWalletCounts(3, 7, 10)

	assert.Equal(t, 3.0, gaugeValue(t, reg, "vendora_wallet_pool_available"))
	assert.Equal(t, 7.0, gaugeValue(t, reg, "vendora_wallet_pool_in_use"))
	assert.Equal(t, 10.0, gaugeValue(t, reg, "vendora_wallet_pool_total"))
}

func TestPoolMetricsNilSafe(t *testing.T) {
	var pool *PoolMetrics
	pool.SetWalletCounts(1, 2, 3)
	pool.SetLocationCount("p1", 4)
}

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobs := NewCronJobMetrics(reg)

	jobs.IncSuccess("wallet-pool-health")
	jobs.IncFailure("")
	jobs.ObserveDuration("wallet-pool-health", 120*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found []*dto.MetricFamily
	for _, fam := range families {
		switch fam.GetName() {
		case "vendora_job_success_total", "vendora_job_failure_total", "vendora_job_duration_seconds":
			found = append(found, fam)
		}
	}
	require.Len(t, found, 3)
}
