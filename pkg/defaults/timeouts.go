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

package defaults

import "time"

// Loop intervals.
const (
	// CollectInterval is the default producer tick.
	CollectInterval = 5 * time.Second

	// RelayInterval is the default fan-in relay tick.
	RelayInterval = 10 * time.Second

	// RefreshInterval is the default dashboard refresh tick.
	RefreshInterval = 10 * time.Second

	// StaleAfter marks a snapshot as stale in the dashboard when it is older
	// than this.
	StaleAfter = 60 * time.Second
)

// Collector timeouts for external query commands.
const (
	// QueryTimeout bounds a single nvidia-smi or ps invocation.
	QueryTimeout = 30 * time.Second
)

// Aggregator timeouts.
const (
	// FetchTimeout bounds one host's snapshot fetch.
	FetchTimeout = 10 * time.Second
)

// Publish retry parameters for remote transports.
const (
	// PublishInitialBackoff is the first retry delay.
	PublishInitialBackoff = 250 * time.Millisecond

	// PublishMaxBackoff caps a single retry delay.
	PublishMaxBackoff = 1 * time.Second

	// PublishMaxElapsed bounds all retries of one publish. Must stay below
	// CollectInterval.
	PublishMaxElapsed = 3 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sRequestTimeout bounds a single ConfigMap get/patch/create.
	K8sRequestTimeout = 10 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 15 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second
)

// FreeThresholdMiB is the used-memory cutoff below which a GPU counts as free.
const FreeThresholdMiB = 500
