// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the wellbeing
// service: request counters, relay stream durations, active stream gauges,
// error counters by code, and crisis-language finding counters.
//
// All operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "havenwell"

// Endpoint labels.
const (
	EndpointMoodChat    = "mood_chat"
	EndpointTherapyChat = "therapy_chat"
	EndpointTherapyWS   = "therapy_ws"
	EndpointInsight     = "mood_insight"
	EndpointCRUD        = "crud"
)

// Error code labels.
const (
	ErrorCodeValidation       = "validation"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodePaymentRequired  = "payment_required"
	ErrorCodeUpstream         = "upstream"
	ErrorCodeStore            = "store"
	ErrorCodeInternal         = "internal"
	ErrorCodeClientDisconnect = "client_disconnect"
)

// Metrics holds all Prometheus metrics for the service. Initialize once
// at startup via InitMetrics; handlers nil-check DefaultMetrics so tests
// can run without registration.
type Metrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint, status (success, error)
	RequestsTotal *prometheus.CounterVec

	// StreamDurationSeconds measures relay duration end to end.
	// Labels: endpoint, status
	StreamDurationSeconds *prometheus.HistogramVec

	// ActiveStreams tracks currently open relay connections.
	// Labels: endpoint
	ActiveStreams *prometheus.GaugeVec

	// ErrorsTotal counts errors by endpoint and code.
	// Labels: endpoint, error_code
	ErrorsTotal *prometheus.CounterVec

	// CrisisFindingsTotal counts inbound messages that matched crisis
	// language patterns. Findings never block a request; this counter is
	// the operational signal.
	// Labels: endpoint
	CrisisFindingsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *Metrics

// InitMetrics creates and registers all metrics with the default
// registry. Call once at startup.
func InitMetrics() *Metrics {
	m := &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		StreamDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stream_duration_seconds",
			Help:      "Relay stream duration from request to close.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint", "status"}),
		ActiveStreams: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_streams",
			Help:      "Currently open relay connections.",
		}, []string{"endpoint"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Errors by endpoint and code.",
		}, []string{"endpoint", "error_code"}),
		CrisisFindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crisis_findings_total",
			Help:      "Inbound messages matching crisis language patterns.",
		}, []string{"endpoint"}),
	}
	DefaultMetrics = m
	return m
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(endpoint string, success bool) {
	m.RequestsTotal.WithLabelValues(endpoint, statusLabel(success)).Inc()
}

// RecordStreamDuration records the total relay duration.
func (m *Metrics) RecordStreamDuration(endpoint string, seconds float64, success bool) {
	m.StreamDurationSeconds.WithLabelValues(endpoint, statusLabel(success)).Observe(seconds)
}

// StreamStarted increments the active stream gauge.
func (m *Metrics) StreamStarted(endpoint string) {
	m.ActiveStreams.WithLabelValues(endpoint).Inc()
}

// StreamEnded decrements the active stream gauge.
func (m *Metrics) StreamEnded(endpoint string) {
	m.ActiveStreams.WithLabelValues(endpoint).Dec()
}

// RecordError records one error occurrence.
func (m *Metrics) RecordError(endpoint, code string) {
	m.ErrorsTotal.WithLabelValues(endpoint, code).Inc()
}

// RecordCrisisFinding records a crisis-language match on an inbound
// message.
func (m *Metrics) RecordCrisisFinding(endpoint string) {
	m.CrisisFindingsTotal.WithLabelValues(endpoint).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
