/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the station.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peach95_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration tracks HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peach95_api_request_duration_seconds",
		Help:    "HTTP API request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peach95_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// APIWebSocketConnections gauges open event stream connections.
	APIWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peach95_api_websocket_connections",
		Help: "Open event stream websocket connections.",
	})

	// VOGenerationsTotal counts VO generation attempts by outcome
	// (generated, mock, failed, skipped_cold_open).
	VOGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peach95_vo_generations_total",
		Help: "VO generation requests by outcome.",
	}, []string{"outcome"})

	// VOGenerationDuration tracks end-to-end generation latency.
	VOGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "peach95_vo_generation_duration_seconds",
		Help:    "VO generation duration.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// QueueDepth gauges the number of queued tracks.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peach95_queue_depth",
		Help: "Tracks currently in the playback queue.",
	})

	// TracksPlayedTotal counts tracks that started playback.
	TracksPlayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peach95_tracks_played_total",
		Help: "Tracks that started playback.",
	})

	// DatabaseQueryDuration tracks database operation latency.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peach95_db_query_duration_seconds",
		Help:    "Database operation duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts database errors by operation.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peach95_db_errors_total",
		Help: "Database errors by operation.",
	}, []string{"operation", "kind"})

	// DatabaseConnectionsActive gauges open connections.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peach95_db_connections_active",
		Help: "Open database connections.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
