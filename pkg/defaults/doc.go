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

// Package defaults provides centralized configuration constants for gpumon.
//
// This package defines intervals, timeouts, and thresholds used across the
// producer, relay, aggregator, and dashboard. Centralizing these values keeps
// the components consistent and makes tuning easier.
//
// # Categories
//
//   - Loop intervals: producer, relay, and dashboard refresh ticks
//   - Collector timeouts: for external GPU/process queries
//   - Fetch timeouts: per-host reads performed by the aggregator
//   - Server timeouts: for the dashboard HTTP server
//   - HTTP client timeouts: for the remote document store
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.FetchTimeout)
//	defer cancel()
//
// # Guidelines
//
//   - Publish retries must finish well inside one producer interval
//   - Fetch timeout must not exceed the refresh interval so one slow
//     host never delays the next render cycle
package defaults
