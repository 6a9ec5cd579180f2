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

// Package snapshot defines the per-host GPU snapshot data model shared by the
// producer, the transports, the aggregator, and the dashboard.
//
// A producer captures the raw outputs of three external queries (the GPU
// table, the compute-process table, and the pid/owner listing) and stores
// them verbatim in a Record. The Record is the persisted wire format: JSON
// with hostname, timestamp, readable_time, and either the three raw outputs
// or an error string. Interpretation happens entirely on the read side.
//
// # Row Validation
//
// Each raw table is validated row by row. A row that does not match its
// schema yields a RowResult carrying a Skip reason instead of a value; the
// rest of the table is unaffected:
//
//	for _, r := range snapshot.ParseGPURows(rec.GPUCSV()) {
//	    if !r.OK() {
//	        slog.Debug("gpu row skipped", "line", r.Line, "reason", r.Skip)
//	        continue
//	    }
//	    use(r.Value)
//	}
//
// # Join
//
// Process rows are left-joined with owners by pid (unmatched owners become
// "Unknown") and attributed to a GPU index through the GPU uuid. A process
// whose uuid matches no GPU in the same snapshot is an orphan: it stays in
// the process list with a nil GPUIndex.
//
// # Statistics
//
// Summarize derives the per-host counters used by the dashboard. A GPU is
// free when its used memory is below FreeThresholdMiB. Status precedence is
// Down > Full > OK.
package snapshot
