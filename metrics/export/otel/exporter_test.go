package otel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/pinlock"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot pinlock.MetricsSnapshot
	audit    pinlock.AuditStats
	attempts pinlock.AttemptsInfo
	lock     pinlock.LockInfo
	err      error
}

func (f *fakeSource) MetricsSnapshot() pinlock.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := pinlock.MetricsSnapshot{
		Counters:   make(map[pinlock.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[pinlock.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditStats() pinlock.AuditStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.audit
}

func (f *fakeSource) FailedAttemptsInfo(context.Context) (pinlock.AttemptsInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.attempts, f.err
}

func (f *fakeSource) IsLocked(context.Context) (pinlock.LockInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lock, f.err
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return rm
}

func findInt64(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func findFloat64(rm metricdata.ResourceMetrics, name string) (float64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if data, ok := m.Data.(metricdata.Gauge[float64]); ok && len(data.DataPoints) > 0 {
				return data.DataPoints[0].Value, true
			}
		}
	}
	return 0, false
}

func newExporter(t *testing.T, src *fakeSource) *sdkmetric.ManualReader {
	t.Helper()
	reader, provider := newTestMeter()
	exp, err := NewOTelExporterFromSource(provider.Meter("pinlock-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	t.Cleanup(func() {
		if err := exp.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return reader
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := newExporter(t, &fakeSource{
		snapshot: pinlock.MetricsSnapshot{
			Counters: map[pinlock.MetricID]uint64{
				pinlock.MetricLoginSuccess: 3,
				pinlock.MetricLoginLocked:  2,
			},
			Histograms: map[pinlock.MetricID][]uint64{
				pinlock.MetricDeriveLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		audit: pinlock.AuditStats{Delivered: 5, Dropped: 1, Pending: 2},
	})
	rm := collect(t, reader)

	checks := map[string]int64{
		"pinlock_login_success_total":                   3,
		"pinlock_login_locked_total":                    2,
		"pinlock_audit_delivered_total":                 5,
		"pinlock_audit_dropped_total":                   1,
		"pinlock_audit_pending":                         2,
		"pinlock_derive_latency_seconds_bucket_le_0_01": 1,
		"pinlock_derive_latency_seconds_bucket_le_inf":  8,
		"pinlock_derive_latency_seconds_count":          8,
	}
	for name, want := range checks {
		got, ok := findInt64(rm, name)
		if !ok {
			t.Fatalf("metric %s not collected", name)
		}
		if got != want {
			t.Fatalf("metric %s = %d, want %d", name, got, want)
		}
	}
}

func TestExporterObservesLockoutGauges(t *testing.T) {
	reader := newExporter(t, &fakeSource{
		attempts: pinlock.AttemptsInfo{FailedAttempts: 5, MaxAttempts: 5},
		lock:     pinlock.LockInfo{Locked: true, Remaining: 4*time.Minute + 30*time.Second},
	})
	rm := collect(t, reader)

	checks := map[string]float64{
		"pinlock_failed_attempts":           5,
		"pinlock_max_failed_attempts":       5,
		"pinlock_locked":                    1,
		"pinlock_lockout_remaining_seconds": 270,
	}
	for name, want := range checks {
		got, ok := findFloat64(rm, name)
		if !ok {
			t.Fatalf("gauge %s not collected", name)
		}
		if got != want {
			t.Fatalf("gauge %s = %v, want %v", name, got, want)
		}
	}
	if _, ok := findInt64(rm, "pinlock_login_success_total"); ok {
		t.Fatal("expected no operation counters without a metrics snapshot")
	}
}

func TestExporterSkipsLockoutWhenEngineNotReady(t *testing.T) {
	reader := newExporter(t, &fakeSource{err: pinlock.ErrEngineNotReady})
	rm := collect(t, reader)

	if _, ok := findFloat64(rm, "pinlock_locked"); ok {
		t.Fatal("expected no lockout gauge for an unready engine")
	}
	if _, ok := findInt64(rm, "pinlock_audit_pending"); !ok {
		t.Fatal("expected audit gauge to be collected")
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newTestMeter()
	meter := provider.Meter("pinlock-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	src := &fakeSource{
		snapshot: pinlock.MetricsSnapshot{
			Counters: map[pinlock.MetricID]uint64{
				pinlock.MetricLoginSuccess: 1,
			},
			Histograms: map[pinlock.MetricID][]uint64{
				pinlock.MetricDeriveLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}
	reader := newExporter(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[pinlock.MetricLoginSuccess] = uint64(v)
			src.attempts.FailedAttempts = v % 5
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(i + 1)
	}
	wg.Wait()
}
