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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

const (
	noneText = "-"

	// HotTemperatureC is the temperature above which a GPU is flagged.
	HotTemperatureC = 80
)

var namePrefixes = []string{"NVIDIA ", "GeForce ", "RTX "}

type options struct {
	staleAfter time.Duration
}

// Option configures Render.
type Option func(*options)

// WithStaleAfter sets the age beyond which a snapshot is flagged stale.
// Zero disables the flag.
func WithStaleAfter(d time.Duration) Option {
	return func(o *options) {
		o.staleAfter = d
	}
}

// Render builds the display model for view as of now.
func Render(view aggregator.ClusterView, now time.Time, opts ...Option) DisplayModel {
	o := options{staleAfter: defaults.StaleAfter}
	for _, opt := range opts {
		opt(&o)
	}

	m := DisplayModel{
		GeneratedAt:      now,
		GatheredAt:       view.GatheredAt,
		FreeThresholdMiB: snapshot.FreeThresholdMiB,
		Caption:          fmt.Sprintf("Free = Memory < %d MiB", snapshot.FreeThresholdMiB),
		Hosts:            make([]HostCard, 0, len(view.Entries)),
	}

	for _, e := range view.Entries {
		card := renderHost(e, now, o)
		m.Summary.Hosts++
		if card.Status == snapshot.StatusDown {
			m.Summary.HostsDown++
		}
		m.Summary.TotalGPU += card.Stats.TotalGPU
		m.Summary.FreeGPU += card.Stats.FreeGPU
		m.Hosts = append(m.Hosts, card)
	}
	return m
}

func renderHost(e aggregator.HostEntry, now time.Time, o options) HostCard {
	st := e.Stats()
	card := HostCard{
		Host:     e.Host,
		Name:     transport.ShortHost(e.Host),
		Free:     fmt.Sprintf("%d / %d", st.FreeGPU, st.TotalGPU),
		FreeGPUs: FreeGPUsText(st.FreeGPUIDs),
		UsedGPUs: st.UsedGPUSummary,
		Status:   st.Status,
		Stats:    st,
		GPUs:     []GPUCard{},
		Orphans:  []ProcessRow{},
	}

	if e.Err != nil {
		card.Error = e.Err.Message
		card.Reason = string(e.Err.Reason)
		return card
	}
	if e.Snapshot == nil {
		return card
	}

	s := e.Snapshot
	if !s.CapturedAt.IsZero() {
		at := s.CapturedAt
		card.CapturedAt = &at
		age := now.Sub(at)
		if age < 0 {
			age = 0
		}
		card.AgeSeconds = age.Seconds()
		card.Stale = o.staleAfter > 0 && age > o.staleAfter
	}

	card.NoData = len(s.GPUs) == 0
	for _, g := range s.GPUs {
		card.GPUs = append(card.GPUs, renderGPU(g, s.ProcessesOn(g.Index)))
	}
	for _, p := range s.Orphans() {
		card.Orphans = append(card.Orphans, processRow(p))
	}
	return card
}

func renderGPU(g snapshot.GPUReading, procs []snapshot.ProcessReading) GPUCard {
	c := GPUCard{
		Index:           g.Index,
		Name:            DisplayName(g.Name),
		UUID:            g.UUID,
		Free:            g.Free(),
		MemoryUsedMiB:   g.MemoryUsedMiB,
		MemoryTotalMiB:  g.MemoryTotalMiB,
		MemoryText:      fmt.Sprintf("RAM: %d / %d MB", g.MemoryUsedMiB, g.MemoryTotalMiB),
		UtilizationText: noneText,
		TemperatureText: noneText,
		Processes:       make([]ProcessRow, 0, len(procs)),
	}
	if g.MemoryTotalMiB > 0 {
		c.MemoryRatio = float64(g.MemoryUsedMiB) / float64(g.MemoryTotalMiB)
	}
	if g.UtilizationPct != nil {
		c.UtilizationText = strconv.Itoa(*g.UtilizationPct) + "%"
	}
	if g.TemperatureC != nil {
		c.TemperatureText = strconv.Itoa(*g.TemperatureC) + "°C"
		c.Hot = *g.TemperatureC > HotTemperatureC
	}
	for _, p := range procs {
		c.Processes = append(c.Processes, processRow(p))
	}
	return c
}

func processRow(p snapshot.ProcessReading) ProcessRow {
	return ProcessRow{
		User:      p.Owner,
		PID:       p.PID,
		MemoryMiB: p.MemoryUsedMiB,
		Process:   BaseName(p.ProcessName),
		GPUUUID:   p.GPUUUID,
	}
}

// FreeGPUsText formats free GPU ids as "GPU 0, 2", or "-" when none.
func FreeGPUsText(ids []int) string {
	if len(ids) == 0 {
		return noneText
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return "GPU " + strings.Join(s, ", ")
}

// DisplayName strips vendor and product-line prefixes from a GPU name.
func DisplayName(name string) string {
	for _, p := range namePrefixes {
		name = strings.ReplaceAll(name, p, "")
	}
	return name
}

// BaseName returns the last path element of a process name.
func BaseName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
