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

package aggregator

import (
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

// Reason classifies why a host has no usable snapshot.
type Reason string

const (
	ReasonNotFound       Reason = "not_found"
	ReasonTimeout        Reason = "timeout"
	ReasonFetchFailed    Reason = "fetch_failed"
	ReasonMalformed      Reason = "malformed"
	ReasonCollectorError Reason = "collector_error"
)

// HostError is the synthesized entry of a host that could not be read.
type HostError struct {
	Host    string `json:"host" yaml:"host"`
	Reason  Reason `json:"reason" yaml:"reason"`
	Message string `json:"message" yaml:"message"`

	cause error
}

// Error implements the error interface.
func (e *HostError) Error() string {
	return e.Host + ": " + e.Message
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *HostError) Unwrap() error {
	return e.cause
}

// HostEntry is one host's slot in a ClusterView: exactly one of Snapshot
// and Err is set.
type HostEntry struct {
	Host     string                 `json:"host" yaml:"host"`
	Snapshot *snapshot.HostSnapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Err      *HostError             `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stats returns the derived per-host counters; any error entry is Down.
func (e HostEntry) Stats() snapshot.Stats {
	if e.Err != nil || e.Snapshot == nil {
		return snapshot.DownStats()
	}
	return snapshot.Summarize(*e.Snapshot)
}

// ClusterView is the cluster-wide result of one gather cycle.
type ClusterView struct {
	GatheredAt time.Time   `json:"gatheredAt" yaml:"gatheredAt"`
	Entries    []HostEntry `json:"entries" yaml:"entries"`
}

// Entry returns the entry for host.
func (v ClusterView) Entry(host string) (HostEntry, bool) {
	for _, e := range v.Entries {
		if e.Host == host {
			return e, true
		}
	}
	return HostEntry{}, false
}

// RawResult is one host's unparsed fetch result.
type RawResult struct {
	Host    string
	Content []byte
	Err     *HostError
}
