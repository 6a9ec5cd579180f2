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
	"time"
)

// UnknownOwner is the owner assigned to a process with no owner row.
const UnknownOwner = "Unknown"

// GPUReading is one parsed row of the GPU table. UtilizationPct and
// TemperatureC are nil when the board does not report them.
type GPUReading struct {
	Index          int    `json:"index" yaml:"index"`
	UUID           string `json:"uuid" yaml:"uuid"`
	Name           string `json:"name" yaml:"name"`
	MemoryUsedMiB  int    `json:"memoryUsedMiB" yaml:"memoryUsedMiB"`
	MemoryTotalMiB int    `json:"memoryTotalMiB" yaml:"memoryTotalMiB"`
	UtilizationPct *int   `json:"utilizationPct,omitempty" yaml:"utilizationPct,omitempty"`
	TemperatureC   *int   `json:"temperatureC,omitempty" yaml:"temperatureC,omitempty"`
}

// Free reports whether the GPU's used memory is below FreeThresholdMiB.
func (g GPUReading) Free() bool {
	return g.MemoryUsedMiB < FreeThresholdMiB
}

// ProcessReading is one compute process. GPUIndex is nil for orphans.
type ProcessReading struct {
	GPUUUID       string `json:"gpuUUID" yaml:"gpuUUID"`
	PID           int    `json:"pid" yaml:"pid"`
	MemoryUsedMiB int    `json:"memoryUsedMiB" yaml:"memoryUsedMiB"`
	ProcessName   string `json:"processName" yaml:"processName"`
	Owner         string `json:"owner" yaml:"owner"`
	GPUIndex      *int   `json:"gpuIndex,omitempty" yaml:"gpuIndex,omitempty"`
}

// Orphan reports whether the process could not be attributed to a GPU.
func (p ProcessReading) Orphan() bool {
	return p.GPUIndex == nil
}

// HostSnapshot is one host's parsed point-in-time reading. When Error is set
// GPUs and Processes are empty.
type HostSnapshot struct {
	Hostname   string           `json:"hostname" yaml:"hostname"`
	CapturedAt time.Time        `json:"capturedAt" yaml:"capturedAt"`
	GPUs       []GPUReading     `json:"gpus" yaml:"gpus"`
	Processes  []ProcessReading `json:"processes" yaml:"processes"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`

	// SkippedRows counts rows dropped by validation across all three tables.
	SkippedRows int `json:"skippedRows,omitempty" yaml:"skippedRows,omitempty"`
}

// FromRecord interprets a decoded Record. An error record yields a snapshot
// with only Error set.
func FromRecord(r Record) HostSnapshot {
	s := HostSnapshot{
		Hostname:   r.Hostname,
		CapturedAt: r.CapturedAt(),
		GPUs:       []GPUReading{},
		Processes:  []ProcessReading{},
	}
	if r.Error != "" {
		s.Error = r.Error
		return s
	}

	gpuRows := ParseGPURows(r.GPUCSV())
	procRows := ParseProcessRows(r.ProcCSV())
	ownerRows := ParseOwnerRows(r.UserTxt())

	s.GPUs = Valid(gpuRows)
	s.Processes = Join(s.GPUs, Valid(procRows), Valid(ownerRows))
	s.SkippedRows = SkipCount(gpuRows) + SkipCount(procRows) + SkipCount(ownerRows)
	return s
}

// Join attaches owners and GPU indices to processes. It is a left join:
// every process is returned, in input order. Unmatched owners become
// UnknownOwner; unmatched GPU uuids leave GPUIndex nil. When the same pid
// appears twice in owners, the first wins.
func Join(gpus []GPUReading, procs []ProcessReading, owners []OwnerRow) []ProcessReading {
	users := make(map[int]string, len(owners))
	for _, o := range owners {
		if _, ok := users[o.PID]; !ok {
			users[o.PID] = o.User
		}
	}
	index := make(map[string]int, len(gpus))
	for _, g := range gpus {
		if _, ok := index[g.UUID]; !ok {
			index[g.UUID] = g.Index
		}
	}

	out := make([]ProcessReading, 0, len(procs))
	for _, p := range procs {
		p.Owner = UnknownOwner
		if u, ok := users[p.PID]; ok {
			p.Owner = u
		}
		p.GPUIndex = nil
		if idx, ok := index[p.GPUUUID]; ok {
			p.GPUIndex = &idx
		}
		out = append(out, p)
	}
	return out
}

// ProcessesOn returns the processes attributed to the GPU with the given index.
func (s HostSnapshot) ProcessesOn(index int) []ProcessReading {
	var out []ProcessReading
	for _, p := range s.Processes {
		if p.GPUIndex != nil && *p.GPUIndex == index {
			out = append(out, p)
		}
	}
	return out
}

// Orphans returns the processes that match no GPU in the snapshot.
func (s HostSnapshot) Orphans() []ProcessReading {
	var out []ProcessReading
	for _, p := range s.Processes {
		if p.Orphan() {
			out = append(out, p)
		}
	}
	return out
}
