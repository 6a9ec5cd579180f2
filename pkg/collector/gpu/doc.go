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

// Package gpu runs the external GPU queries on the local host and returns
// their raw outputs.
//
// # Queries
//
// Three collaborators are invoked per capture:
//
//	nvidia-smi --query-gpu=index,uuid,name,memory.used,memory.total,utilization.gpu,temperature.gpu --format=csv,noheader,nounits
//	nvidia-smi --query-compute-apps=gpu_uuid,pid,used_memory,process_name --format=csv,noheader,nounits
//	ps -o pid=,user= -p 1234,5678
//
// The owner lookup is batched: one call for the whole pid set found in the
// process table. It is skipped when no pids are found. An alternative
// OwnerLookup backed by gopsutil reads owners from /proc instead of ps and
// produces the same "pid user" text.
//
// # Error Policy
//
// A failed GPU query returns an error with code QUERY_FAILED and no output.
// A failed process query or owner lookup does not fail the capture: the
// affected outputs are empty and Output.Degraded carries the reason with
// code DEGRADED_ATTRIBUTION.
//
// # Usage
//
//	c := gpu.NewCollector(gpu.WithQueryTimeout(30 * time.Second))
//	out, err := c.Collect(ctx)
//	if err != nil {
//	    // error-only snapshot
//	}
//	if out.Degraded != nil {
//	    slog.Warn("process attribution degraded", "error", out.Degraded)
//	}
//
// Command execution is injectable through WithRunner so callers can test
// every degrade path without nvidia-smi.
package gpu
