// Package metrics holds the Prometheus collectors shared across the server.
// Everything registers with the default registry via promauto and is served
// by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnswersTotal counts answer submissions by result
	// (accepted, invalid, incorrect, not_playing, complete, error).
	AnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossword_answers_total",
		Help: "Answer submissions by result",
	}, []string{"result"})

	// RoomOpsTotal counts room service operations by operation and outcome.
	RoomOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossword_room_ops_total",
		Help: "Room operations by operation and outcome",
	}, []string{"op", "outcome"})

	// SolvesTotal counts completed solves.
	SolvesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossword_solves_total",
		Help: "Completed solves",
	})

	// SolveSeconds tracks solving time of completed puzzles.
	SolveSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossword_solve_seconds",
		Help:    "Solving time of completed puzzles in seconds",
		Buckets: []float64{60, 180, 300, 600, 900, 1800, 3600, 7200},
	})

	// RequestDuration tracks HTTP latency by route pattern, method and
	// status code.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossword_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"route", "method", "status"})

	// Subscribers is the number of open event streams.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossword_event_subscribers",
		Help: "Open event stream connections",
	})

	// EventsPublished counts events by kind.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossword_events_published_total",
		Help: "Events published by kind",
	}, []string{"kind"})

	// EventsDropped counts events not delivered to a slow subscriber.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossword_events_dropped_total",
		Help: "Events dropped because a subscriber's buffer was full",
	})
)
