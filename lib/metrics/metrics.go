// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus metrics for the casement daemon.
//
// Metrics are registered on the default registry at package init and
// recorded through package functions, so callers never touch the
// prometheus API directly. The daemon exposes them over HTTP with
// [Handler] when a metrics address is configured.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	connectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_connections_total",
			Help: "Total number of protocol connections accepted",
		},
	)

	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casement_connections_active",
			Help: "Number of currently open protocol connections",
		},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casement_requests_total",
			Help: "Total protocol requests by message type",
		},
		[]string{"type"},
	)

	protocolErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_protocol_errors_total",
			Help: "Total requests answered with an error reply",
		},
	)

	// Window subsystem metrics
	windowsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_windows_created_total",
			Help: "Total windows created",
		},
	)

	widgetsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_widgets_created_total",
			Help: "Total widgets created",
		},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_events_dropped_total",
			Help: "Total events discarded from full queues",
		},
	)

	eventsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_events_delivered_total",
			Help: "Total events read by clients",
		},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casement_render_duration_seconds",
			Help:    "Synchronous render pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Nested instance metrics
	nestedInstancesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casement_nested_instances_active",
			Help: "Number of running nested instance children",
		},
	)

	framesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_frames_received_total",
			Help: "Total frames received from nested instances",
		},
	)

	framesDeduplicatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_frames_deduplicated_total",
			Help: "Frames skipped because the content digest was unchanged",
		},
	)

	frameBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casement_frame_bytes_total",
			Help: "Total compressed frame payload bytes received",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordConnectionOpen records an accepted connection.
func RecordConnectionOpen() {
	connectionsTotal.Inc()
	connectionsActive.Inc()
}

// RecordConnectionClose records a closed connection.
func RecordConnectionClose() {
	connectionsActive.Dec()
}

// RecordRequest records one protocol request by message type name.
func RecordRequest(messageType string) {
	requestsTotal.WithLabelValues(messageType).Inc()
}

// RecordProtocolError records a request answered with an error reply.
func RecordProtocolError() {
	protocolErrorsTotal.Inc()
}

// RecordWindowCreated records a window creation.
func RecordWindowCreated() {
	windowsCreatedTotal.Inc()
}

// RecordWidgetCreated records a widget creation.
func RecordWidgetCreated() {
	widgetsCreatedTotal.Inc()
}

// RecordEventDropped records an event discarded from a full queue.
func RecordEventDropped() {
	eventsDroppedTotal.Inc()
}

// RecordEventDelivered records an event read by a client.
func RecordEventDelivered() {
	eventsDeliveredTotal.Inc()
}

// RecordRender records the duration of a synchronous render pass.
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordNestedMount records a nested instance starting.
func RecordNestedMount() {
	nestedInstancesActive.Inc()
}

// RecordNestedUnmount records a nested instance stopping.
func RecordNestedUnmount() {
	nestedInstancesActive.Dec()
}

// RecordFrame records a frame arriving from a nested instance.
// deduplicated reports whether the composite was skipped because the
// digest matched the previous frame.
func RecordFrame(payloadBytes int, deduplicated bool) {
	framesReceivedTotal.Inc()
	frameBytesTotal.Add(float64(payloadBytes))
	if deduplicated {
		framesDeduplicatedTotal.Inc()
	}
}
