// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/dashboard"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpumon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpumon_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpumon_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Rate limiting metrics
	rateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpumon_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)

	// Panic recovery metrics
	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpumon_panic_recoveries_total",
			Help: "Total number of panics recovered in HTTP handlers",
		},
	)

	// Dashboard refresh metrics
	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpumon_dashboard_refresh_duration_seconds",
			Help:    "Duration of one cluster gather and render",
			Buckets: prometheus.DefBuckets,
		},
	)

	clusterGPUs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gpumon_cluster_gpus",
			Help: "GPUs across all reachable hosts by state",
		},
		[]string{"state"}, // total or free
	)

	hostStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gpumon_host_status",
			Help: "1 for the host's current status, 0 otherwise",
		},
		[]string{"host", "status"},
	)
)

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		// route pattern keeps per-host paths from exploding label cardinality
		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.Status())

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	}
}

var statuses = []snapshot.Status{snapshot.StatusOK, snapshot.StatusFull, snapshot.StatusDown}

func recordModel(m dashboard.DisplayModel) {
	clusterGPUs.WithLabelValues("total").Set(float64(m.Summary.TotalGPU))
	clusterGPUs.WithLabelValues("free").Set(float64(m.Summary.FreeGPU))
	for _, h := range m.Hosts {
		for _, st := range statuses {
			v := 0.0
			if h.Status == st {
				v = 1
			}
			hostStatus.WithLabelValues(h.Name, string(st)).Set(v)
		}
	}
}
