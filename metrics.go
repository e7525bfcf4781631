package pinlock

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricSetupSuccess counts PINs created by SetupPIN.
	MetricSetupSuccess MetricID = iota
	// MetricSetupFailure counts rejected SetupPIN calls.
	MetricSetupFailure
	// MetricSetupSkipped counts SkipSetup calls that opened a session.
	MetricSetupSkipped
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected for a wrong or malformed PIN.
	MetricLoginFailure
	// MetricLoginLocked counts logins refused because a lockout was active.
	MetricLoginLocked
	// MetricLockoutTriggered counts failures that started a new lockout.
	MetricLockoutTriggered
	// MetricPINChangeSuccess counts successful ChangePIN calls.
	MetricPINChangeSuccess
	// MetricPINChangeInvalidOld counts ChangePIN calls with a wrong current PIN.
	MetricPINChangeInvalidOld
	// MetricPINResetSuccess counts successful ResetPIN calls.
	MetricPINResetSuccess
	// MetricPINResetWipe counts ResetPIN calls that wiped workspace data.
	MetricPINResetWipe
	// MetricPINResetFailure counts failed ResetPIN calls.
	MetricPINResetFailure
	// MetricPINDisabled counts successful DisablePIN calls.
	MetricPINDisabled
	// MetricPINDisableFailure counts rejected DisablePIN calls.
	MetricPINDisableFailure
	// MetricSessionCreated counts opened sessions.
	MetricSessionCreated
	// MetricSessionExpired counts sessions found expired by a validity check.
	MetricSessionExpired
	// MetricLogout counts Logout calls.
	MetricLogout
	// MetricStorageFailure counts operations that failed on the storage backend.
	MetricStorageFailure
	// MetricDeriveLatency is the key-derivation latency histogram.
	MetricDeriveLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters and the derivation latency
// histogram. A nil or disabled Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
// Histogram buckets are non-cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the derivation histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only MetricDeriveLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDeriveLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricDeriveLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDeriveLatency].buckets[i])
		}
		s.Histograms[MetricDeriveLatency] = buckets
	}

	return s
}

// bucketIndex maps d onto the 10ms..1s bucket layout shared with the exporters.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 25:
		return 1
	case ms <= 50:
		return 2
	case ms <= 100:
		return 3
	case ms <= 250:
		return 4
	case ms <= 500:
		return 5
	case ms <= 1000:
		return 6
	default:
		return 7
	}
}
