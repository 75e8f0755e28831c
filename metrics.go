package realmauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins across both realms.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected for bad credentials.
	MetricLoginFailure
	// MetricLoginLocked counts logins rejected because the account was locked.
	MetricLoginLocked
	// MetricLoginDisabled counts logins rejected for a non-active account status.
	MetricLoginDisabled
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations rejected for an existing identifier.
	MetricRegisterDuplicate
	// MetricRefreshSuccess counts completed token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts refresh tokens presented after rotation.
	MetricRefreshReuseDetected
	// MetricSessionCreated counts sessions written to the session store.
	MetricSessionCreated
	// MetricSessionInvalidated counts sessions removed from the session store.
	MetricSessionInvalidated
	// MetricLogout counts single-realm logouts.
	MetricLogout
	// MetricLogoutAll counts all-realm invalidations.
	MetricLogoutAll
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes rejected on the old password.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected counts changes rejected for reusing the current password.
	MetricPasswordChangeReuseRejected
	// MetricPasswordResetSuccess counts administrative password resets.
	MetricPasswordResetSuccess
	// MetricAccountLockedAdmin counts administrative lock operations.
	MetricAccountLockedAdmin
	// MetricAccountLockedAuto counts lockouts triggered by the failure threshold.
	MetricAccountLockedAuto
	// MetricAccountUnlocked counts administrative unlock operations.
	MetricAccountUnlocked
	// MetricAccountStatusChanged counts account status transitions.
	MetricAccountStatusChanged
	// MetricRoleEditRejected counts role parent edits rejected for cycles or realm mismatch.
	MetricRoleEditRejected
	// MetricValidateLatency is the access token validation latency histogram.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so hot counters
// incremented from different goroutines do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's lock-free counters. All methods are safe for
// concurrent use and are no-ops on a nil receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics instance from the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the validation latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter identified by id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one latency sample into the histogram identified by id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of the counter identified by id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram into a new MetricsSnapshot.
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
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
