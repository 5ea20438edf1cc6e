package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes recorded by RecordPoll.
const (
	PollData    = "data"
	PollEmpty   = "empty"
	PollTimeout = "timeout"
	PollFatal   = "fatal"
)

var (
	registerOnce sync.Once

	forwardedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ringlink",
			Subsystem: "forward",
			Name:      "bytes_total",
			Help:      "Bytes forwarded from a ring to the downstream sink.",
		},
		[]string{"ring"},
	)
	forwardPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ringlink",
			Subsystem: "forward",
			Name:      "polls_total",
			Help:      "Ring polls by outcome.",
		},
		[]string{"ring", "result"},
	)
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ringlink",
			Subsystem: "ringmaster",
			Name:      "registrations_total",
			Help:      "Registration attempts by role and outcome kind.",
		},
		[]string{"ring", "role", "result"},
	)
	leaseOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ringlink",
			Subsystem: "ringmaster",
			Name:      "lease_open",
			Help:      "1 while the registrar lease is held.",
		},
		[]string{"ring", "role"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(forwardedBytes, forwardPolls, registrations, leaseOpen, httpRequests)
	})
}

func RecordPoll(ring, result string, n int) {
	RegisterMetrics()
	forwardPolls.WithLabelValues(ring, result).Inc()
	if n > 0 {
		forwardedBytes.WithLabelValues(ring).Add(float64(n))
	}
}

func RecordRegistration(ring, role, result string) {
	RegisterMetrics()
	registrations.WithLabelValues(ring, role, result).Inc()
}

func SetLeaseOpen(ring, role string, open bool) {
	RegisterMetrics()
	v := 0.0
	if open {
		v = 1
	}
	leaseOpen.WithLabelValues(ring, role).Set(v)
}
