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

package gpu

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
)

const (
	smiCommand = "nvidia-smi"

	maxErrorOutput = 200
)

var (
	gpuQueryArgs = []string{
		"--query-gpu=index,uuid,name,memory.used,memory.total,utilization.gpu,temperature.gpu",
		"--format=csv,noheader,nounits",
	}
	processQueryArgs = []string{
		"--query-compute-apps=gpu_uuid,pid,used_memory,process_name",
		"--format=csv,noheader,nounits",
	}
)

// Output holds the raw query outputs of one capture.
type Output struct {
	GPU  string
	Proc string
	User string

	// Degraded is set when process attribution could not be completed.
	Degraded *errors.StructuredError
}

// Option configures a Collector.
type Option func(*Collector)

// WithRunner overrides command execution.
func WithRunner(run Runner) Option {
	return func(c *Collector) {
		c.run = run
	}
}

// WithOwnerLookup overrides the pid owner resolver.
func WithOwnerLookup(l OwnerLookup) Option {
	return func(c *Collector) {
		c.owners = l
	}
}

// WithQueryTimeout bounds each external command. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Collector) {
		c.timeout = d
	}
}

// Collector captures GPU and process data from nvidia-smi.
type Collector struct {
	run     Runner
	owners  OwnerLookup
	timeout time.Duration
}

// NewCollector returns a Collector using os/exec, ps-based owner lookup and
// defaults.QueryTimeout unless overridden.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		run:     ExecRunner,
		timeout: defaults.QueryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.owners == nil {
		c.owners = &PSOwnerLookup{Run: c.run}
	}
	return c
}

// Collect runs the GPU query, the process query and the owner lookup.
// Only a GPU query failure is returned as an error; output that holds no
// parseable GPU row counts as one.
func (c *Collector) Collect(ctx context.Context) (*Output, error) {
	gpuOut, err := c.exec(ctx, smiCommand, gpuQueryArgs...)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeQueryFailed, "GPU query failed", err,
			map[string]any{"query": "gpu"})
	}

	out := &Output{GPU: strings.TrimSpace(string(gpuOut))}
	if err := validateGPUOutput(out.GPU); err != nil {
		return nil, err
	}

	procOut, err := c.exec(ctx, smiCommand, processQueryArgs...)
	if err != nil {
		out.Degraded = errors.WrapWithContext(errors.ErrCodeDegraded, "process query failed", err,
			map[string]any{"query": "compute-apps"})
		return out, nil
	}
	out.Proc = strings.TrimSpace(string(procOut))

	pids := ProcessPIDs(out.Proc)
	if len(pids) == 0 {
		return out, nil
	}

	lctx, cancel := c.withTimeout(ctx)
	defer cancel()
	users, err := c.owners.Lookup(lctx, pids)
	if err != nil {
		out.Degraded = errors.WrapWithContext(errors.ErrCodeDegraded, "owner lookup failed", err,
			map[string]any{"pids": len(pids)})
		return out, nil
	}
	out.User = users

	slog.Debug("gpu query complete",
		slog.Int("pids", len(pids)),
		slog.Int("bytes", len(out.GPU)+len(out.Proc)+len(out.User)))
	return out, nil
}

// validateGPUOutput rejects non-empty output without a single valid row, as
// printed by nvidia-smi with exit status 0 when the driver is unreachable.
func validateGPUOutput(text string) error {
	if text == "" {
		return nil
	}
	rows := snapshot.ParseGPURows(text)
	if len(snapshot.Valid(rows)) > 0 {
		return nil
	}
	first, _, _ := strings.Cut(text, "\n")
	if len(first) > maxErrorOutput {
		first = first[:maxErrorOutput]
	}
	return errors.NewWithContext(errors.ErrCodeQueryFailed,
		"GPU query returned no valid rows: "+strings.TrimSpace(first),
		map[string]any{"query": "gpu", "skipped": snapshot.SkipCount(rows)})
}

func (c *Collector) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	qctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.run(qctx, name, args...)
}

func (c *Collector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ProcessPIDs returns the distinct numeric pids of a process table in
// first-seen order. Rows rejected by the process validator are ignored.
func ProcessPIDs(procCSV string) []int {
	seen := make(map[int]struct{})
	var pids []int
	for _, p := range snapshot.Valid(snapshot.ParseProcessRows(procCSV)) {
		if _, ok := seen[p.PID]; ok {
			continue
		}
		seen[p.PID] = struct{}{}
		pids = append(pids, p.PID)
	}
	return pids
}
