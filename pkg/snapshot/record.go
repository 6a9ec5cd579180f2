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
	"math"
	"strings"
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
)

// ReadableTimeLayout is the layout of Record.ReadableTime.
const ReadableTimeLayout = "2006-01-02 15:04:05"

// Record is the persisted snapshot format. Exactly one of the raw-output
// group (GPU, Proc, User) or Error is populated.
type Record struct {
	Hostname     string  `json:"hostname" yaml:"hostname"`
	Timestamp    float64 `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	ReadableTime string  `json:"readable_time,omitempty" yaml:"readable_time,omitempty"`
	GPU          *string `json:"gpu_csv,omitempty" yaml:"gpu_csv,omitempty"`
	Proc         *string `json:"proc_csv,omitempty" yaml:"proc_csv,omitempty"`
	User         *string `json:"user_txt,omitempty" yaml:"user_txt,omitempty"`
	Error        string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRecord returns a record stamped with host and capture time.
func NewRecord(host string, at time.Time) Record {
	return Record{
		Hostname:     host,
		Timestamp:    float64(at.Unix()) + float64(at.Nanosecond())/1e9,
		ReadableTime: at.Format(ReadableTimeLayout),
	}
}

// ErrorRecord returns a record that carries only an error message.
func ErrorRecord(host string, at time.Time, msg string) Record {
	r := NewRecord(host, at)
	r.Error = msg
	return r
}

// WithOutputs sets the three raw query outputs and clears any error.
func (r Record) WithOutputs(gpu, proc, user string) Record {
	r.GPU = &gpu
	r.Proc = &proc
	r.User = &user
	r.Error = ""
	return r
}

// GPUCSV returns the raw GPU table, or "" when absent.
func (r Record) GPUCSV() string { return deref(r.GPU) }

// ProcCSV returns the raw process table, or "" when absent.
func (r Record) ProcCSV() string { return deref(r.Proc) }

// UserTxt returns the raw owner listing, or "" when absent.
func (r Record) UserTxt() string { return deref(r.User) }

// CapturedAt converts the epoch timestamp back into a time. A zero timestamp
// yields the zero time.
func (r Record) CapturedAt() time.Time {
	if r.Timestamp <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Encode renders the record as indented JSON.
func Encode(r Record) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to encode snapshot record", err)
	}
	return b, nil
}

// Decode parses raw content into a Record and checks its shape: a hostname is
// required along with either an error or a GPU table.
func Decode(raw []byte) (Record, error) {
	var r Record
	if len(strings.TrimSpace(string(raw))) == 0 {
		return r, errors.New(errors.ErrCodeMalformed, "empty snapshot content")
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, errors.Wrap(errors.ErrCodeMalformed, "snapshot is not valid JSON", err)
	}
	if r.Hostname == "" {
		return r, errors.New(errors.ErrCodeMalformed, "snapshot has no hostname")
	}
	if r.Error == "" && r.GPU == nil {
		return r, errors.NewWithContext(errors.ErrCodeMalformed, "snapshot has neither gpu_csv nor error",
			map[string]any{"hostname": r.Hostname})
	}
	return r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
