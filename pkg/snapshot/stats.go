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

package snapshot

import (
	"fmt"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
)

// FreeThresholdMiB is the used-memory cutoff below which a GPU is free.
const FreeThresholdMiB = defaults.FreeThresholdMiB

// Status is the derived host classification.
type Status string

const (
	// StatusDown marks a host whose snapshot could not be fetched or parsed,
	// or whose collector reported an error.
	StatusDown Status = "Down"
	// StatusFull marks a reachable host with no free GPU.
	StatusFull Status = "Full"
	// StatusOK marks a reachable host with at least one free GPU.
	StatusOK Status = "OK"
)

// Stats are the per-host counters shown in the availability summary.
type Stats struct {
	TotalGPU       int      `json:"totalGPU" yaml:"totalGPU"`
	FreeGPU        int      `json:"freeGPU" yaml:"freeGPU"`
	FreeGPUIDs     []int    `json:"freeGPUIDs" yaml:"freeGPUIDs"`
	UsedGPUSummary []string `json:"usedGPUSummary" yaml:"usedGPUSummary"`
	Status         Status   `json:"status" yaml:"status"`
}

// DownStats returns the stats of a host with no usable snapshot.
func DownStats() Stats {
	return Stats{
		FreeGPUIDs:     []int{},
		UsedGPUSummary: []string{},
		Status:         StatusDown,
	}
}

// Summarize derives Stats from a snapshot. A snapshot carrying an error is
// Down with zero counts regardless of any GPU data.
func Summarize(s HostSnapshot) Stats {
	if s.Error != "" {
		return DownStats()
	}

	st := Stats{
		TotalGPU:       len(s.GPUs),
		FreeGPUIDs:     []int{},
		UsedGPUSummary: []string{},
	}
	for _, g := range s.GPUs {
		if g.Free() {
			st.FreeGPU++
			st.FreeGPUIDs = append(st.FreeGPUIDs, g.Index)
			continue
		}
		st.UsedGPUSummary = append(st.UsedGPUSummary, UsedLine(g))
	}

	st.Status = StatusFull
	if st.FreeGPU > 0 {
		st.Status = StatusOK
	}
	return st
}

// UsedLine formats a GPU's memory as floor-divided GiB, e.g. "GPU 1: 19G / 23G".
func UsedLine(g GPUReading) string {
	used, total := 0, 0
	if g.MemoryTotalMiB > 0 {
		used = g.MemoryUsedMiB / 1024
		total = g.MemoryTotalMiB / 1024
	}
	return fmt.Sprintf("GPU %d: %dG / %dG", g.Index, used, total)
}
