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

package dashboard

import (
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

// DisplayModel is everything a front end needs to draw one refresh.
type DisplayModel struct {
	GeneratedAt      time.Time  `json:"generatedAt" yaml:"generatedAt"`
	GatheredAt       time.Time  `json:"gatheredAt" yaml:"gatheredAt"`
	FreeThresholdMiB int        `json:"freeThresholdMiB" yaml:"freeThresholdMiB"`
	Caption          string     `json:"caption" yaml:"caption"`
	Summary          Summary    `json:"summary" yaml:"summary"`
	Hosts            []HostCard `json:"hosts" yaml:"hosts"`
}

// Host returns the card for a configured host name or its short name.
func (m DisplayModel) Host(name string) (HostCard, bool) {
	for _, h := range m.Hosts {
		if h.Host == name || h.Name == name {
			return h, true
		}
	}
	return HostCard{}, false
}

// Summary aggregates the whole cluster.
type Summary struct {
	Hosts     int `json:"hosts" yaml:"hosts"`
	HostsDown int `json:"hostsDown" yaml:"hostsDown"`
	TotalGPU  int `json:"totalGPU" yaml:"totalGPU"`
	FreeGPU   int `json:"freeGPU" yaml:"freeGPU"`
}

// HostCard is one host's row in the availability table plus its GPU detail.
type HostCard struct {
	Host     string          `json:"host" yaml:"host"`
	Name     string          `json:"name" yaml:"name"`
	Free     string          `json:"free" yaml:"free"`
	FreeGPUs string          `json:"freeGPUs" yaml:"freeGPUs"`
	UsedGPUs []string        `json:"usedGPUs" yaml:"usedGPUs"`
	Status   snapshot.Status `json:"status" yaml:"status"`
	Stats    snapshot.Stats  `json:"stats" yaml:"stats"`

	// Error and Reason are set for Down hosts.
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	CapturedAt *time.Time `json:"capturedAt,omitempty" yaml:"capturedAt,omitempty"`
	AgeSeconds float64    `json:"ageSeconds,omitempty" yaml:"ageSeconds,omitempty"`
	Stale      bool       `json:"stale" yaml:"stale"`

	// NoData marks a reachable host whose GPU table had no valid rows.
	NoData  bool         `json:"noData" yaml:"noData"`
	GPUs    []GPUCard    `json:"gpus" yaml:"gpus"`
	Orphans []ProcessRow `json:"orphans" yaml:"orphans"`
}

// UsedGPUsText joins the used GPU lines, or returns "-" when there are none.
func (h HostCard) UsedGPUsText(sep string) string {
	if len(h.UsedGPUs) == 0 {
		return noneText
	}
	out := h.UsedGPUs[0]
	for _, l := range h.UsedGPUs[1:] {
		out += sep + l
	}
	return out
}

// GPUCard is the detail of one GPU.
type GPUCard struct {
	Index           int          `json:"index" yaml:"index"`
	Name            string       `json:"name" yaml:"name"`
	UUID            string       `json:"uuid" yaml:"uuid"`
	Free            bool         `json:"free" yaml:"free"`
	MemoryUsedMiB   int          `json:"memoryUsedMiB" yaml:"memoryUsedMiB"`
	MemoryTotalMiB  int          `json:"memoryTotalMiB" yaml:"memoryTotalMiB"`
	MemoryRatio     float64      `json:"memoryRatio" yaml:"memoryRatio"`
	MemoryText      string       `json:"memoryText" yaml:"memoryText"`
	UtilizationText string       `json:"utilizationText" yaml:"utilizationText"`
	TemperatureText string       `json:"temperatureText" yaml:"temperatureText"`
	Hot             bool         `json:"hot" yaml:"hot"`
	Processes       []ProcessRow `json:"processes" yaml:"processes"`
}

// ProcessRow is one process as displayed.
type ProcessRow struct {
	User      string `json:"user" yaml:"user"`
	PID       int    `json:"pid" yaml:"pid"`
	MemoryMiB int    `json:"memoryMiB" yaml:"memoryMiB"`
	Process   string `json:"process" yaml:"process"`
	GPUUUID   string `json:"gpuUUID,omitempty" yaml:"gpuUUID,omitempty"`
}

// TableHeader names the columns of the availability table.
var TableHeader = []string{"Server", "Free", "Free GPUs", "Used GPUs", "Status"}

// StatusText is the status with a stale marker when the snapshot is old.
func (h HostCard) StatusText() string {
	if h.Stale {
		return string(h.Status) + " (stale)"
	}
	return string(h.Status)
}

// Row returns the host's availability table cells; used GPU lines are
// joined with sep.
func (h HostCard) Row(sep string) []string {
	return []string{h.Name, h.Free, h.FreeGPUs, h.UsedGPUsText(sep), h.StatusText()}
}

// TableRows implements serializer.Tabular.
func (m DisplayModel) TableRows() ([]string, [][]string) {
	rows := make([][]string, 0, len(m.Hosts))
	for _, h := range m.Hosts {
		rows = append(rows, h.Row("\n"))
	}
	return TableHeader, rows
}
