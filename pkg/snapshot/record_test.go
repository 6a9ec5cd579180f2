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
	"encoding/json"
	"testing"
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecordShape(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 45, 500_000_000, time.Local)
	rec := NewRecord("zxcpu1", at).WithOutputs("0, GPU-a, A100, 1, 2, 3, 4", "", "")

	b, err := Encode(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"hostname\": \"zxcpu1\"")

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "2025-03-01 12:30:45", m["readable_time"])
	assert.InDelta(t, float64(at.Unix())+0.5, m["timestamp"], 1e-3)
	assert.Contains(t, m, "gpu_csv")
	assert.Contains(t, m, "proc_csv", "degraded outputs are still present as empty strings")
	assert.Contains(t, m, "user_txt")
	assert.NotContains(t, m, "error")
}

func TestEncodeErrorRecordShape(t *testing.T) {
	rec := ErrorRecord("zxcpu2", time.Now(), "nvidia-smi: command not found")

	b, err := Encode(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "nvidia-smi: command not found", m["error"])
	assert.NotContains(t, m, "gpu_csv")
	assert.NotContains(t, m, "proc_csv")
	assert.NotContains(t, m, "user_txt")
}

func TestWithOutputsClearsError(t *testing.T) {
	rec := ErrorRecord("h", time.Now(), "boom").WithOutputs("g", "p", "u")
	assert.Empty(t, rec.Error)
	assert.Equal(t, "g", rec.GPUCSV())
	assert.Equal(t, "p", rec.ProcCSV())
	assert.Equal(t, "u", rec.UserTxt())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
	}{
		{"full", `{"hostname":"a","timestamp":1.5,"gpu_csv":"","proc_csv":"","user_txt":""}`, false},
		{"error only", `{"hostname":"a","error":"File not found: /x"}`, false},
		{"empty", "", true},
		{"whitespace", "  \n", true},
		{"not json", "<html>rate limited</html>", true},
		{"array", "[]", true},
		{"no hostname", `{"gpu_csv":""}`, true},
		{"no payload", `{"hostname":"a","timestamp":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if tt.malformed {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeMalformed, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	gpuCSV := "0, GPU-a, NVIDIA A100, 100, 40960, 0, 30\n1, GPU-b, NVIDIA A100, 30000, 40960, 99, 70\n"
	procCSV := "GPU-b, 4242, 29000, /opt/conda/bin/python\nGPU-zzz, 5, 10, ghost\n"
	userTxt := "4242 carol\n"

	rec := NewRecord("zxcpu3", time.Now()).WithOutputs(gpuCSV, procCSV, userTxt)
	b, err := Encode(rec)
	require.NoError(t, err)

	back, err := Decode(b)
	require.NoError(t, err)

	direct := FromRecord(rec)
	viaWire := FromRecord(back)
	assert.Equal(t, direct.GPUs, viaWire.GPUs)
	assert.Equal(t, direct.Processes, viaWire.Processes)
	assert.WithinDuration(t, direct.CapturedAt, viaWire.CapturedAt, time.Millisecond)
}

func TestCapturedAtZero(t *testing.T) {
	assert.True(t, Record{}.CapturedAt().IsZero())
}
