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

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Loop intervals
		{"CollectInterval", CollectInterval, 1 * time.Second, 60 * time.Second},
		{"RelayInterval", RelayInterval, 1 * time.Second, 60 * time.Second},
		{"RefreshInterval", RefreshInterval, 1 * time.Second, 60 * time.Second},
		{"StaleAfter", StaleAfter, 10 * time.Second, 10 * time.Minute},

		// Collector and fetch timeouts
		{"QueryTimeout", QueryTimeout, 5 * time.Second, 60 * time.Second},
		{"FetchTimeout", FetchTimeout, 1 * time.Second, 30 * time.Second},

		// Server timeouts
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 60 * time.Second},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},

		// K8s and HTTP client timeouts
		{"K8sRequestTimeout", K8sRequestTimeout, 1 * time.Second, 60 * time.Second},
		{"HTTPClientTimeout", HTTPClientTimeout, 5 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestPublishRetryFitsInsideTick(t *testing.T) {
	if PublishMaxElapsed >= CollectInterval {
		t.Errorf("PublishMaxElapsed (%v) should be less than CollectInterval (%v)",
			PublishMaxElapsed, CollectInterval)
	}
	if PublishInitialBackoff > PublishMaxBackoff {
		t.Errorf("PublishInitialBackoff (%v) should not exceed PublishMaxBackoff (%v)",
			PublishInitialBackoff, PublishMaxBackoff)
	}
}

func TestFetchTimeoutWithinRefresh(t *testing.T) {
	// A slow host must not push the aggregation past the next render cycle.
	if FetchTimeout > RefreshInterval {
		t.Errorf("FetchTimeout (%v) should not exceed RefreshInterval (%v)",
			FetchTimeout, RefreshInterval)
	}
}

func TestServerTimeoutRelationships(t *testing.T) {
	if ServerReadTimeout > ServerWriteTimeout {
		t.Errorf("ServerReadTimeout (%v) should not exceed ServerWriteTimeout (%v)",
			ServerReadTimeout, ServerWriteTimeout)
	}
	if ServerIdleTimeout < ServerWriteTimeout {
		t.Errorf("ServerIdleTimeout (%v) should be at least ServerWriteTimeout (%v)",
			ServerIdleTimeout, ServerWriteTimeout)
	}
}

func TestHTTPClientTimeoutRelationships(t *testing.T) {
	if HTTPConnectTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPConnectTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPConnectTimeout, HTTPClientTimeout)
	}
	if HTTPTLSHandshakeTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPTLSHandshakeTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPTLSHandshakeTimeout, HTTPClientTimeout)
	}
}

func TestFreeThreshold(t *testing.T) {
	if FreeThresholdMiB != 500 {
		t.Errorf("FreeThresholdMiB = %d, want 500", FreeThresholdMiB)
	}
}
