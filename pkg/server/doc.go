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

// Package server serves the cluster dashboard over HTTP.
//
// A single background loop gathers every configured host through a
// Gatherer, renders a dashboard.DisplayModel, and swaps it into a cache
// guarded by a RWMutex. Handlers only read the cache, so a slow or dead
// host never blocks a request.
//
// # Endpoints
//
//	GET /v1/cluster          DisplayModel as JSON, or YAML with ?format=yaml
//	GET /v1/hosts/{host}     one HostCard; 404 for an unknown host
//	GET /health              liveness
//	GET /ready               200 once the first refresh has completed
//	GET /metrics             Prometheus metrics
//
// API routes run behind the middleware chain: metrics, API version
// negotiation, request id (X-Request-Id, UUID), panic recovery, rate
// limiting (golang.org/x/time/rate) and debug request logging. System
// routes skip it.
//
// # Errors
//
// Non-2xx responses share the ErrorResponse body:
//
//	{
//	  "code": "NOT_FOUND",
//	  "message": "Unknown host",
//	  "details": {"host": "zxcpu9"},
//	  "requestId": "4f1c...",
//	  "timestamp": "2025-03-01T12:00:00Z",
//	  "retryable": false
//	}
//
// # Usage
//
//	agg := aggregator.New(t, aggregator.WithFetchTimeout(10*time.Second))
//	s := server.New(
//		server.WithName("gpumon"),
//		server.WithSource(agg, hosts),
//	)
//	if err := s.Run(ctx); err != nil {
//		return err
//	}
//
// Run returns when ctx is canceled, after a graceful shutdown bounded by
// Config.ShutdownTimeout (SHUTDOWN_TIMEOUT_SECONDS overrides it).
package server
