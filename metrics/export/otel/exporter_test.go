package otel

import (
	"context"
	"sync"
	"testing"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goAccounts.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goAccounts.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAccounts.MetricsSnapshot{
		Counters:   make(map[goAccounts.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goAccounts.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			}
		}
	}
	return values
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: goAccounts.MetricsSnapshot{
			Counters: map[goAccounts.MetricID]uint64{
				goAccounts.MetricLoginSuccess: 3,
				goAccounts.MetricAccessDenied: 2,
			},
			Histograms: map[goAccounts.MetricID][]uint64{
				goAccounts.MetricOperationLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporter(provider.Meter("goaccounts-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	values := collect(t, reader)
	assert.Equal(t, int64(3), values["goaccounts_login_success_total"])
	assert.Equal(t, int64(2), values["goaccounts_access_denied_total"])
	assert.Equal(t, int64(1), values["goaccounts_audit_dropped_total"])
	assert.Equal(t, int64(1), values["goaccounts_operation_latency_seconds_bucket_le_0_01"])
	assert.Equal(t, int64(6), values["goaccounts_operation_latency_seconds_bucket_le_1"])
	assert.Equal(t, int64(8), values["goaccounts_operation_latency_seconds_count"])
}

func TestExporterSkipsHistogramWhenAbsent(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{snapshot: goAccounts.MetricsSnapshot{
		Counters:   map[goAccounts.MetricID]uint64{goAccounts.MetricLogout: 4},
		Histograms: map[goAccounts.MetricID][]uint64{},
	}}

	exp, err := NewExporter(provider.Meter("goaccounts-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	values := collect(t, reader)
	assert.Equal(t, int64(4), values["goaccounts_logout_total"])
	_, ok := values["goaccounts_operation_latency_seconds_count"]
	assert.False(t, ok)
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader()

	_, err := NewExporter(provider.Meter("goaccounts-test"), nil)
	assert.ErrorIs(t, err, ErrNilSource)
	_, err = NewExporter(nil, &fakeSource{})
	assert.ErrorIs(t, err, ErrNilMeter)
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: goAccounts.MetricsSnapshot{
			Counters: map[goAccounts.MetricID]uint64{
				goAccounts.MetricLoginSuccess: 1,
			},
			Histograms: map[goAccounts.MetricID][]uint64{
				goAccounts.MetricOperationLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporter(provider.Meter("goaccounts-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goAccounts.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
