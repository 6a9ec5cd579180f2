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
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Owner lookup names accepted by NewOwnerLookup.
const (
	OwnerLookupPS       = "ps"
	OwnerLookupGopsutil = "gopsutil"
)

// OwnerLookup resolves the owners of a set of pids in one call and returns
// whitespace-separated "pid user" lines.
type OwnerLookup interface {
	Lookup(ctx context.Context, pids []int) (string, error)
}

// NewOwnerLookup returns the lookup registered under name.
func NewOwnerLookup(name string, run Runner) (OwnerLookup, error) {
	switch name {
	case "", OwnerLookupPS:
		return &PSOwnerLookup{Run: run}, nil
	case OwnerLookupGopsutil:
		return NewProcessOwnerLookup(), nil
	default:
		return nil, fmt.Errorf("unknown owner lookup %q (supported: %s, %s)", name, OwnerLookupPS, OwnerLookupGopsutil)
	}
}

// PSOwnerLookup runs "ps -o pid=,user= -p <pids>".
type PSOwnerLookup struct {
	Run Runner
}

// Lookup implements OwnerLookup.
func (l *PSOwnerLookup) Lookup(ctx context.Context, pids []int) (string, error) {
	run := l.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, "ps", "-o", "pid=,user=", "-p", joinPIDs(pids))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ProcessOwnerLookup reads process owners through gopsutil. Pids that have
// exited or cannot be resolved are left out, matching ps.
type ProcessOwnerLookup struct {
	username func(ctx context.Context, pid int32) (string, error)
}

// NewProcessOwnerLookup returns a gopsutil-backed lookup.
func NewProcessOwnerLookup() *ProcessOwnerLookup {
	return &ProcessOwnerLookup{username: processUsername}
}

func processUsername(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return p.UsernameWithContext(ctx)
}

// Lookup implements OwnerLookup. It fails only when no pid resolves.
func (l *ProcessOwnerLookup) Lookup(ctx context.Context, pids []int) (string, error) {
	var (
		lines   []string
		lastErr error
	)
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		user, err := l.username(ctx, int32(pid)) //nolint:gosec // pids come from nvidia-smi
		if err != nil {
			lastErr = err
			continue
		}
		lines = append(lines, fmt.Sprintf("%d %s", pid, user))
	}
	if len(lines) == 0 && lastErr != nil {
		return "", fmt.Errorf("failed to resolve owners: %w", lastErr)
	}
	return strings.Join(lines, "\n"), nil
}

func joinPIDs(pids []int) string {
	s := make([]string, len(pids))
	for i, p := range pids {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, ",")
}
