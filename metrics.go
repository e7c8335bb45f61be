package subAuth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or latency histogram in [Metrics].
type MetricID uint16

const (
	// MetricSignInSuccess counts successful sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts sign-ins rejected for credentials or account state.
	MetricSignInFailure
	// MetricSignInRateLimited counts sign-ins rejected by the failure throttle.
	MetricSignInRateLimited
	// MetricSignUpSuccess counts created identities.
	MetricSignUpSuccess
	// MetricSignUpDuplicate counts sign-ups rejected for a taken email.
	MetricSignUpDuplicate
	// MetricRefreshSuccess counts successful rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected rotations.
	MetricRefreshFailure
	// MetricRefreshReplayRejected counts rotations of unknown or already consumed tokens.
	MetricRefreshReplayRejected
	// MetricSessionCreated counts granted sessions.
	MetricSessionCreated
	// MetricSessionRevoked counts sessions removed by sign-out, revoke-all or reactivation.
	MetricSessionRevoked
	// MetricSessionSwept counts expired sessions removed by sweeps.
	MetricSessionSwept
	// MetricSignOut counts single-session sign-outs.
	MetricSignOut
	// MetricSignOutAll counts sign-out-all operations.
	MetricSignOutAll
	// MetricAccessRejected counts access tokens that failed verification.
	MetricAccessRejected
	// MetricRoleChange counts applied role changes.
	MetricRoleChange
	// MetricRoleChangeDenied counts role changes refused by the hierarchy.
	MetricRoleChangeDenied
	// MetricPasswordChangeSuccess counts password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes with a wrong current password.
	MetricPasswordChangeInvalidOld
	// MetricAccountDeactivated counts deactivations.
	MetricAccountDeactivated
	// MetricAccountDeleted counts deletions.
	MetricAccountDeleted
	// MetricStoreUnavailable counts operations failed by a backing store.
	MetricStoreUnavailable
	// MetricValidateLatency is the access-token verification latency histogram.
	MetricValidateLatency
	// MetricSignInLatency is the sign-in latency histogram.
	MetricSignInLatency
	// MetricRefreshLatency is the refresh latency histogram.
	MetricRefreshLatency
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

// Metrics holds lock-free counters and latency histograms. A nil or
// disabled Metrics ignores every write.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram
// buckets are non-cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
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

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to the counter id.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the latency histogram id. Non-latency ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isLatencyMetric(id) {
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

// Snapshot copies every counter and, when enabled, every latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(latencyMetrics)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isLatencyMetric(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range latencyMetrics {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

var latencyMetrics = []MetricID{MetricValidateLatency, MetricSignInLatency, MetricRefreshLatency}

func isLatencyMetric(id MetricID) bool {
	switch id {
	case MetricValidateLatency, MetricSignInLatency, MetricRefreshLatency:
		return true
	default:
		return false
	}
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
