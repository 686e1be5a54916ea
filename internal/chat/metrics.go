package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crewdesk",
		Name:      "chat_requests_total",
		Help:      "Chat requests by resulting agent tag.",
	}, []string{"agent"})

	chatRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crewdesk",
		Name:      "chat_request_duration_seconds",
		Help:      "End-to-end chat request latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	modelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crewdesk",
		Name:      "model_calls_total",
		Help:      "Outbound model calls by phase and outcome.",
	}, []string{"phase", "outcome"})

	turnWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crewdesk",
		Name:      "turn_writes_total",
		Help:      "Conversation log writes by outcome.",
	}, []string{"outcome"})
)
