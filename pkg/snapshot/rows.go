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
	"math"
	"strconv"
	"strings"
)

const (
	gpuFieldCount     = 7
	processFieldCount = 4
)

// Skip reasons reported by the row validators.
const (
	SkipFieldCount   = "unexpected field count"
	SkipIndex        = "non-numeric index"
	SkipMemory       = "non-numeric memory"
	SkipUtilization  = "non-numeric utilization"
	SkipTemperature  = "non-numeric temperature"
	SkipMemoryBounds = "memory used exceeds total"
	SkipUUID         = "empty uuid"
	SkipPID          = "non-numeric pid"
)

// RowResult is the outcome of validating one row: either a Value, or a Skip
// reason when the row does not match its schema. Line is 1-based.
type RowResult[T any] struct {
	Line  int
	Value T
	Skip  string
}

// OK reports whether the row was accepted.
func (r RowResult[T]) OK() bool { return r.Skip == "" }

// Valid returns the accepted values in input order.
func Valid[T any](rows []RowResult[T]) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r.OK() {
			out = append(out, r.Value)
		}
	}
	return out
}

// SkipCount returns the number of rejected rows.
func SkipCount[T any](rows []RowResult[T]) int {
	n := 0
	for _, r := range rows {
		if !r.OK() {
			n++
		}
	}
	return n
}

// OwnerRow is one pid/user pair from the owner listing.
type OwnerRow struct {
	PID  int    `json:"pid" yaml:"pid"`
	User string `json:"user" yaml:"user"`
}

// ParseGPURows validates the GPU table: index, uuid, name, memory used,
// memory total, utilization, temperature. Blank lines are ignored.
func ParseGPURows(text string) []RowResult[GPUReading] {
	var out []RowResult[GPUReading]
	eachLine(text, func(line int, s string) {
		out = append(out, parseGPURow(line, s))
	})
	return out
}

func parseGPURow(line int, s string) RowResult[GPUReading] {
	res := RowResult[GPUReading]{Line: line}
	f := splitFields(s)
	if len(f) != gpuFieldCount {
		res.Skip = SkipFieldCount
		return res
	}

	idx, ok := parseInt(f[0])
	if !ok {
		res.Skip = SkipIndex
		return res
	}
	if f[1] == "" {
		res.Skip = SkipUUID
		return res
	}
	used, okUsed := parseInt(f[3])
	total, okTotal := parseInt(f[4])
	if !okUsed || !okTotal {
		res.Skip = SkipMemory
		return res
	}
	if used > total {
		res.Skip = SkipMemoryBounds
		return res
	}
	util, ok := parseOptional(f[5])
	if !ok {
		res.Skip = SkipUtilization
		return res
	}
	temp, ok := parseOptional(f[6])
	if !ok {
		res.Skip = SkipTemperature
		return res
	}

	res.Value = GPUReading{
		Index:          idx,
		UUID:           f[1],
		Name:           f[2],
		MemoryUsedMiB:  used,
		MemoryTotalMiB: total,
		UtilizationPct: util,
		TemperatureC:   temp,
	}
	return res
}

// ParseProcessRows validates the compute-process table: gpu uuid, pid,
// memory used, process name. Names containing commas are rejoined. A
// non-numeric memory value is recorded as zero; only the pid is required.
func ParseProcessRows(text string) []RowResult[ProcessReading] {
	var out []RowResult[ProcessReading]
	eachLine(text, func(line int, s string) {
		res := RowResult[ProcessReading]{Line: line}
		f := splitFields(s)
		if len(f) < processFieldCount {
			res.Skip = SkipFieldCount
			out = append(out, res)
			return
		}
		pid, ok := parseInt(f[1])
		if !ok {
			res.Skip = SkipPID
			out = append(out, res)
			return
		}
		mem, _ := parseInt(f[2])
		res.Value = ProcessReading{
			GPUUUID:       f[0],
			PID:           pid,
			MemoryUsedMiB: mem,
			ProcessName:   strings.Join(f[3:], ","),
			Owner:         UnknownOwner,
		}
		out = append(out, res)
	})
	return out
}

// ParseOwnerRows validates the whitespace-separated pid/user listing.
func ParseOwnerRows(text string) []RowResult[OwnerRow] {
	var out []RowResult[OwnerRow]
	eachLine(text, func(line int, s string) {
		res := RowResult[OwnerRow]{Line: line}
		f := strings.Fields(s)
		if len(f) < 2 {
			res.Skip = SkipFieldCount
			out = append(out, res)
			return
		}
		pid, ok := parseInt(f[0])
		if !ok {
			res.Skip = SkipPID
			out = append(out, res)
			return
		}
		res.Value = OwnerRow{PID: pid, User: f[1]}
		out = append(out, res)
	})
	return out
}

func eachLine(text string, fn func(line int, s string)) {
	for i, s := range strings.Split(text, "\n") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		fn(i+1, s)
	}
}

func splitFields(s string) []string {
	f := strings.Split(s, ",")
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	return f
}

// parseInt accepts integers and decimal forms such as "1024.0", truncated
// toward zero.
func parseInt(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int(v), true
}

// parseOptional treats the nvidia-smi placeholders for unsupported fields
// as absent.
func parseOptional(s string) (*int, bool) {
	switch s {
	case "[N/A]", "N/A", "[Not Supported]", "[Unknown Error]":
		return nil, true
	}
	n, ok := parseInt(s)
	if !ok {
		return nil, false
	}
	return &n, true
}
