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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

type hostBehavior struct {
	content []byte
	err     error
	delay   time.Duration
	hang    bool
	// stuck blocks Fetch until closed, ignoring ctx
	stuck chan struct{}
}

type fakeTransport struct {
	hosts    map[string]hostBehavior
	inflight int32
	peak     int32
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Publish(context.Context, string, []byte) error { return nil }

func (f *fakeTransport) Fetch(ctx context.Context, host string) ([]byte, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	b, ok := f.hosts[host]
	if !ok {
		return nil, fmt.Errorf("%s: %w", host, transport.ErrNotFound)
	}
	if b.stuck != nil {
		<-b.stuck
		return b.content, b.err
	}
	if b.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return b.content, b.err
}

func record(t *testing.T, host, gpuCSV string) []byte {
	t.Helper()
	b, err := snapshot.Encode(snapshot.NewRecord(host, time.Now()).WithOutputs(gpuCSV, "", ""))
	require.NoError(t, err)
	return b
}

var hosts = []string{"zxcpu1", "zxcpu2", "zxcpu3", "zxcpu4", "zxcpu5"}

func TestGatherOneEntryPerHostInOrder(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{}}
	for i, h := range hosts {
		// later hosts answer first
		ft.hosts[h] = hostBehavior{
			content: record(t, h, "0, GPU-a, A100, 100, 40960, 0, 30"),
			delay:   time.Duration(len(hosts)-i) * 50 * time.Millisecond,
		}
	}

	view := New(ft).Gather(context.Background(), hosts)
	require.Len(t, view.Entries, len(hosts))
	for i, e := range view.Entries {
		assert.Equal(t, hosts[i], e.Host)
		require.Nil(t, e.Err)
		require.NotNil(t, e.Snapshot)
		assert.Len(t, e.Snapshot.GPUs, 1)
	}
	assert.Equal(t, int32(len(hosts)), atomic.LoadInt32(&ft.peak), "all hosts fetched in parallel")
	assert.False(t, view.GatheredAt.IsZero())
}

func TestGatherTimeoutIsolated(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{}}
	for _, h := range hosts {
		ft.hosts[h] = hostBehavior{content: record(t, h,
			"0, GPU-a, A100, 100, 24000, 0, 30\n1, GPU-b, A100, 20000, 24000, 90, 70")}
	}
	ft.hosts["zxcpu3"] = hostBehavior{hang: true}

	start := time.Now()
	view := New(ft, WithFetchTimeout(100*time.Millisecond)).Gather(context.Background(), hosts)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, view.Entries, 5)
	for _, e := range view.Entries {
		if e.Host == "zxcpu3" {
			require.NotNil(t, e.Err)
			assert.Nil(t, e.Snapshot)
			assert.Equal(t, ReasonTimeout, e.Err.Reason)
			assert.Contains(t, e.Err.Message, "timeout")
			assert.Equal(t, snapshot.StatusDown, e.Stats().Status)
			continue
		}
		require.Nil(t, e.Err, e.Host)
		st := e.Stats()
		assert.Equal(t, 2, st.TotalGPU)
		assert.Equal(t, 1, st.FreeGPU)
		assert.Equal(t, snapshot.StatusOK, st.Status)
	}
}

func TestGatherTimeoutTransportIgnoresContext(t *testing.T) {
	stuck := make(chan struct{})
	t.Cleanup(func() { close(stuck) })

	ft := &fakeTransport{hosts: map[string]hostBehavior{
		"zxcpu1": {content: record(t, "zxcpu1", "0, GPU-a, A100, 100, 40960, 0, 30")},
		"zxcpu3": {content: record(t, "zxcpu3", "0, GPU-a, A100, 100, 40960, 0, 30"), stuck: stuck},
	}}

	done := make(chan ClusterView, 1)
	go func() {
		done <- New(ft, WithFetchTimeout(100*time.Millisecond)).Gather(context.Background(), []string{"zxcpu1", "zxcpu3"})
	}()

	var view ClusterView
	select {
	case view = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Gather blocked on a transport that ignores its context")
	}

	require.Len(t, view.Entries, 2)
	assert.Nil(t, view.Entries[0].Err)
	require.NotNil(t, view.Entries[1].Err)
	assert.Equal(t, ReasonTimeout, view.Entries[1].Err.Reason)
	assert.Contains(t, view.Entries[1].Err.Message, "timeout")
}

func TestGatherSharedFileShowsOnlyOwner(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{}}
	shared := record(t, "zxcpu1.cse.ust.hk", "0, GPU-a, A100, 100, 40960, 0, 30")
	for _, h := range []string{"zxcpu1", "zxcpu2", "zxcpu3"} {
		ft.hosts[h] = hostBehavior{content: shared}
	}

	view := New(ft).Gather(context.Background(), []string{"zxcpu1", "zxcpu2", "zxcpu3"})
	require.Len(t, view.Entries, 3)

	assert.Nil(t, view.Entries[0].Err)
	for _, e := range view.Entries[1:] {
		require.NotNil(t, e.Err, e.Host)
		assert.Equal(t, ReasonMalformed, e.Err.Reason)
		assert.Contains(t, e.Err.Message, "zxcpu1.cse.ust.hk")
		assert.Equal(t, snapshot.StatusDown, e.Stats().Status)
	}
}

func TestGatherReasons(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{
		"ok":        {content: record(t, "ok", "0, GPU-a, A100, 100, 40960, 0, 30")},
		"broken":    {err: errors.New("connection refused")},
		"garbage":   {content: []byte("<html>oops</html>")},
		"collector": {content: []byte(`{"hostname":"collector","error":"nvidia-smi failed: NVML not loaded"}`)},
	}}
	order := []string{"ok", "missing", "broken", "garbage", "collector"}

	view := New(ft).Gather(context.Background(), order)
	require.Len(t, view.Entries, 5)

	assert.Nil(t, view.Entries[0].Err)

	want := map[string]Reason{
		"missing":   ReasonNotFound,
		"broken":    ReasonFetchFailed,
		"garbage":   ReasonMalformed,
		"collector": ReasonCollectorError,
	}
	for _, e := range view.Entries[1:] {
		require.NotNil(t, e.Err, e.Host)
		assert.Equal(t, want[e.Host], e.Err.Reason, e.Host)
		assert.Nil(t, e.Snapshot)
	}

	collector, ok := view.Entry("collector")
	require.True(t, ok)
	assert.Equal(t, "Collector Error: nvidia-smi failed: NVML not loaded", collector.Err.Message)
	st := collector.Stats()
	assert.Equal(t, snapshot.StatusDown, st.Status)
	assert.Zero(t, st.TotalGPU)
	assert.Zero(t, st.FreeGPU)

	missing, _ := view.Entry("missing")
	assert.True(t, errors.Is(missing.Err, transport.ErrNotFound))

	_, ok = view.Entry("nope")
	assert.False(t, ok)
}

func TestGatherEmpty(t *testing.T) {
	view := New(&fakeTransport{}).Gather(context.Background(), nil)
	assert.Empty(t, view.Entries)
}

func TestGatherParentCanceled(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{"a": {hang: true}, "b": {hang: true}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	view := New(ft).Gather(ctx, []string{"a", "b"})
	require.Len(t, view.Entries, 2)
	for _, e := range view.Entries {
		require.NotNil(t, e.Err)
		assert.Equal(t, ReasonFetchFailed, e.Err.Reason)
	}
}

func TestFetchAllRaw(t *testing.T) {
	ft := &fakeTransport{hosts: map[string]hostBehavior{"a": {content: []byte("not json at all")}}}
	raw := New(ft).FetchAll(context.Background(), []string{"a", "b"})
	require.Len(t, raw, 2)
	assert.Equal(t, "not json at all", string(raw[0].Content))
	assert.Nil(t, raw[0].Err)
	require.NotNil(t, raw[1].Err)
	assert.Equal(t, ReasonNotFound, raw[1].Err.Reason)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason Reason
	}{
		{"valid", `{"hostname":"h","timestamp":1,"gpu_csv":"0, GPU-a, A100, 1, 2, 3, 4"}`, ""},
		{"empty gpu table", `{"hostname":"h","gpu_csv":""}`, ""},
		{"invalid json", `{"hostname":`, ReasonMalformed},
		{"wrong shape", `{"hostname":"h"}`, ReasonMalformed},
		{"error record", `{"hostname":"h","error":"boom"}`, ReasonCollectorError},
		{"fqdn of same host", `{"hostname":"h.cluster.local","gpu_csv":""}`, ""},
		{"other host", `{"hostname":"other","gpu_csv":"0, GPU-a, A100, 1, 2, 3, 4"}`, ReasonMalformed},
		{"other host error record", `{"hostname":"other","error":"boom"}`, ReasonMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, he := Parse("h", []byte(tt.raw))
			if tt.reason == "" {
				require.Nil(t, he)
				require.NotNil(t, s)
				return
			}
			require.NotNil(t, he)
			assert.Nil(t, s)
			assert.Equal(t, tt.reason, he.Reason)
		})
	}
}

func TestHostErrorError(t *testing.T) {
	he := &HostError{Host: "zxcpu1", Reason: ReasonTimeout, Message: "fetch timeout after 10s"}
	assert.Equal(t, "zxcpu1: fetch timeout after 10s", he.Error())
	assert.Nil(t, he.Unwrap())
}
