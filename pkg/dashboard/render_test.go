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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

func intPtr(i int) *int { return &i }

func fixtureView(capturedAt time.Time) aggregator.ClusterView {
	gpus := []snapshot.GPUReading{
		{Index: 0, UUID: "GPU-a", Name: "NVIDIA GeForce RTX 3090", MemoryUsedMiB: 100, MemoryTotalMiB: 24576, UtilizationPct: intPtr(0), TemperatureC: intPtr(35)},
		{Index: 1, UUID: "GPU-b", Name: "NVIDIA GeForce RTX 3090", MemoryUsedMiB: 20000, MemoryTotalMiB: 24576, UtilizationPct: intPtr(97), TemperatureC: intPtr(84)},
		{Index: 2, UUID: "GPU-c", Name: "Tesla T4", MemoryUsedMiB: 12, MemoryTotalMiB: 15360},
	}
	procs := snapshot.Join(gpus, []snapshot.ProcessReading{
		{GPUUUID: "GPU-b", PID: 4242, MemoryUsedMiB: 19800, ProcessName: "/usr/bin/python3"},
		{GPUUUID: "GPU-gone", PID: 99, MemoryUsedMiB: 10, ProcessName: "stray"},
	}, []snapshot.OwnerRow{{PID: 4242, User: "alice"}})

	return aggregator.ClusterView{
		GatheredAt: capturedAt,
		Entries: []aggregator.HostEntry{
			{Host: "zxcpu1.lab.example", Snapshot: &snapshot.HostSnapshot{
				Hostname: "zxcpu1", CapturedAt: capturedAt, GPUs: gpus, Processes: procs,
			}},
			{Host: "zxcpu2", Err: &aggregator.HostError{
				Host: "zxcpu2", Reason: aggregator.ReasonTimeout, Message: "fetch timeout after 10s",
			}},
			{Host: "zxcpu3", Snapshot: &snapshot.HostSnapshot{
				Hostname: "zxcpu3", CapturedAt: capturedAt, GPUs: []snapshot.GPUReading{}, Processes: []snapshot.ProcessReading{},
			}},
		},
	}
}

func TestRenderHostCards(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 30, 0, time.UTC)
	m := Render(fixtureView(now.Add(-30*time.Second)), now)

	require.Len(t, m.Hosts, 3)
	assert.Equal(t, now, m.GeneratedAt)
	assert.Equal(t, 500, m.FreeThresholdMiB)
	assert.Equal(t, "Free = Memory < 500 MiB", m.Caption)
	assert.Equal(t, Summary{Hosts: 3, HostsDown: 1, TotalGPU: 3, FreeGPU: 2}, m.Summary)

	up := m.Hosts[0]
	assert.Equal(t, "zxcpu1", up.Name)
	assert.Equal(t, "2 / 3", up.Free)
	assert.Equal(t, "GPU 0, 2", up.FreeGPUs)
	assert.Equal(t, []string{"GPU 1: 19G / 24G"}, up.UsedGPUs)
	assert.Equal(t, "GPU 1: 19G / 24G", up.UsedGPUsText("\n"))
	assert.Equal(t, snapshot.StatusOK, up.Status)
	assert.InDelta(t, 30, up.AgeSeconds, 0.001)
	assert.False(t, up.Stale)
	assert.False(t, up.NoData)
	require.NotNil(t, up.CapturedAt)

	down := m.Hosts[1]
	assert.Equal(t, snapshot.StatusDown, down.Status)
	assert.Equal(t, "0 / 0", down.Free)
	assert.Equal(t, "-", down.FreeGPUs)
	assert.Equal(t, "-", down.UsedGPUsText("\n"))
	assert.Contains(t, down.Error, "timeout")
	assert.Equal(t, "timeout", down.Reason)
	assert.Nil(t, down.CapturedAt)
	assert.Empty(t, down.GPUs)

	empty := m.Hosts[2]
	assert.True(t, empty.NoData)
	assert.Equal(t, snapshot.StatusFull, empty.Status)
	assert.Equal(t, "0 / 0", empty.Free)
}

func TestRenderGPUCards(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := Render(fixtureView(now), now)
	gpus := m.Hosts[0].GPUs
	require.Len(t, gpus, 3)

	cool := gpus[0]
	assert.Equal(t, "3090", cool.Name)
	assert.True(t, cool.Free)
	assert.Equal(t, "RAM: 100 / 24576 MB", cool.MemoryText)
	assert.Equal(t, "0%", cool.UtilizationText)
	assert.Equal(t, "35°C", cool.TemperatureText)
	assert.False(t, cool.Hot)
	assert.Empty(t, cool.Processes)

	hot := gpus[1]
	assert.True(t, hot.Hot)
	assert.False(t, hot.Free)
	assert.InDelta(t, 20000.0/24576.0, hot.MemoryRatio, 1e-9)
	require.Len(t, hot.Processes, 1)
	assert.Equal(t, ProcessRow{User: "alice", PID: 4242, MemoryMiB: 19800, Process: "python3", GPUUUID: "GPU-b"}, hot.Processes[0])

	unreported := gpus[2]
	assert.Equal(t, "Tesla T4", unreported.Name)
	assert.Equal(t, "-", unreported.UtilizationText)
	assert.Equal(t, "-", unreported.TemperatureText)
	assert.False(t, unreported.Hot)

	orphans := m.Hosts[0].Orphans
	require.Len(t, orphans, 1)
	assert.Equal(t, 99, orphans[0].PID)
	assert.Equal(t, snapshot.UnknownOwner, orphans[0].User)
}

func TestRenderStaleness(t *testing.T) {
	captured := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		now        time.Time
		staleAfter time.Duration
		wantStale  bool
	}{
		{"fresh", captured.Add(10 * time.Second), time.Minute, false},
		{"at threshold", captured.Add(time.Minute), time.Minute, false},
		{"past threshold", captured.Add(61 * time.Second), time.Minute, true},
		{"disabled", captured.Add(time.Hour), 0, false},
		{"clock skew", captured.Add(-time.Minute), time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Render(fixtureView(captured), tt.now, WithStaleAfter(tt.staleAfter))
			assert.Equal(t, tt.wantStale, m.Hosts[0].Stale)
			assert.GreaterOrEqual(t, m.Hosts[0].AgeSeconds, 0.0)
			// staleness never changes the derived status
			assert.Equal(t, snapshot.StatusOK, m.Hosts[0].Status)
		})
	}
}

func TestRenderEmptyView(t *testing.T) {
	m := Render(aggregator.ClusterView{}, time.Now())
	assert.NotNil(t, m.Hosts)
	assert.Empty(t, m.Hosts)
	assert.Equal(t, Summary{}, m.Summary)
}

func TestModelHostLookup(t *testing.T) {
	m := Render(fixtureView(time.Now()), time.Now())

	h, ok := m.Host("zxcpu1")
	require.True(t, ok)
	assert.Equal(t, "zxcpu1.lab.example", h.Host)

	_, ok = m.Host("zxcpu1.lab.example")
	assert.True(t, ok)

	_, ok = m.Host("zxcpu9")
	assert.False(t, ok)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "-", FreeGPUsText(nil))
	assert.Equal(t, "GPU 3", FreeGPUsText([]int{3}))
	assert.Equal(t, "GPU 0, 2", FreeGPUsText([]int{0, 2}))

	assert.Equal(t, "3090", DisplayName("NVIDIA GeForce RTX 3090"))
	assert.Equal(t, "A100-SXM4-40GB", DisplayName("NVIDIA A100-SXM4-40GB"))
	assert.Equal(t, "Quadro 8000", DisplayName("Quadro RTX 8000"))

	assert.Equal(t, "python3", BaseName("/usr/bin/python3"))
	assert.Equal(t, "train.py", BaseName("train.py"))
	assert.Equal(t, "", BaseName("/opt/dir/"))
}

func TestTableRows(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	m := Render(fixtureView(now.Add(-5*time.Minute)), now, WithStaleAfter(time.Minute))

	header, rows := m.TableRows()
	assert.Equal(t, []string{"Server", "Free", "Free GPUs", "Used GPUs", "Status"}, header)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"zxcpu1", "2 / 3", "GPU 0, 2", "GPU 1: 19G / 24G", "OK (stale)"}, rows[0])
	assert.Equal(t, []string{"zxcpu2", "0 / 0", "-", "-", "Down"}, rows[1])
	assert.Equal(t, []string{"zxcpu3", "0 / 0", "-", "-", "Full (stale)"}, rows[2])
}
