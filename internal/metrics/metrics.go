// Package metrics exposes the engine's prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the session-layer collectors. Construct once per process and
// share across sessions; all collectors are label-partitioned by session id.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	MessagesIn      *prometheus.CounterVec
	MessagesOut     *prometheus.CounterVec
	Rejects         *prometheus.CounterVec
	SequenceGaps    *prometheus.CounterVec
	ResendRequests  *prometheus.CounterVec
	TestRequests    *prometheus.CounterVec
	Disconnects     *prometheus.CounterVec
	MalformedFrames *prometheus.CounterVec
}

// New builds and registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fixwire_active_sessions",
			Help: "Number of sessions currently in the Active state.",
		}),
		MessagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_messages_in_total",
			Help: "Inbound messages by session and admin classification.",
		}, []string{"session", "kind"}),
		MessagesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_messages_out_total",
			Help: "Outbound messages by session and admin classification.",
		}, []string{"session", "kind"}),
		Rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_rejects_total",
			Help: "Session-level rejects emitted, by session.",
		}, []string{"session"}),
		SequenceGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_sequence_gaps_total",
			Help: "Detected inbound sequence gaps, by session.",
		}, []string{"session"}),
		ResendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_resend_requests_total",
			Help: "Resend requests emitted, by session.",
		}, []string{"session"}),
		TestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_test_requests_total",
			Help: "Test requests emitted after heartbeat silence, by session.",
		}, []string{"session"}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_disconnects_total",
			Help: "Session teardowns by session and reason.",
		}, []string{"session", "reason"}),
		MalformedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixwire_malformed_frames_total",
			Help: "Frames dropped before parsing, by session.",
		}, []string{"session"}),
	}
	reg.MustRegister(
		m.ActiveSessions,
		m.MessagesIn,
		m.MessagesOut,
		m.Rejects,
		m.SequenceGaps,
		m.ResendRequests,
		m.TestRequests,
		m.Disconnects,
		m.MalformedFrames,
	)
	return m
}

// NewUnregistered builds collectors without registering them, for tests and
// for callers that register selectively.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
