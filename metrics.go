package vms

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that issued a token pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts every rejected login.
	MetricLoginFailure
	// MetricLoginChallengeRequired counts logins rejected for a missing challenge.
	MetricLoginChallengeRequired
	// MetricLoginChallengeInvalid counts logins rejected for a wrong or spent challenge.
	MetricLoginChallengeInvalid
	// MetricChallengeIssued counts issued image challenges.
	MetricChallengeIssued
	// MetricRefreshSuccess counts refreshes that minted an access token.
	MetricRefreshSuccess
	// MetricRefreshFailure counts every rejected refresh.
	MetricRefreshFailure
	// MetricRefreshRevoked counts refresh tokens that verified but were superseded.
	MetricRefreshRevoked
	// MetricRefreshRotated counts refreshes that rotated the reference.
	MetricRefreshRotated
	// MetricSessionCreated counts bound refresh references.
	MetricSessionCreated
	// MetricSessionInvalidated counts references cleared by a password change.
	MetricSessionInvalidated
	// MetricLogout counts logouts that cleared a reference.
	MetricLogout
	// MetricAuthenticateFailure counts rejected access tokens.
	MetricAuthenticateFailure
	// MetricAuthorizationDenied counts role checks that failed.
	MetricAuthorizationDenied
	// MetricAccountCreationSuccess counts created accounts.
	MetricAccountCreationSuccess
	// MetricAccountCreationDuplicate counts creations rejected for a taken email.
	MetricAccountCreationDuplicate
	// MetricPasswordChangeSuccess counts password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes with a wrong current password.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected counts password changes to the same password.
	MetricPasswordChangeReuseRejected
	// MetricProfileUpdated counts profile updates.
	MetricProfileUpdated
	// MetricLoginLatency is the login latency histogram.
	MetricLoginLatency
	// MetricValidateLatency is the Authenticate latency histogram.
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

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters and fixed-bucket latency
// histograms. A nil *Metrics records nothing.
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

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms record.
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

// Observe records d in histogram id. Non-histogram ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isHistogram(id) {
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

// Snapshot copies all counters and, when enabled, all histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(histogramIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range histogramIDs {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

var histogramIDs = []MetricID{MetricLoginLatency, MetricValidateLatency}

func isHistogram(id MetricID) bool {
	for _, h := range histogramIDs {
		if h == id {
			return true
		}
	}
	return false
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
