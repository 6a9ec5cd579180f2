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
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFetchTimeout bounds each host's fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(c clock.PassiveClock) Option {
	return func(a *Aggregator) {
		a.clock = c
	}
}

// Aggregator reads host snapshots through a transport.
type Aggregator struct {
	transport transport.Transport
	timeout   time.Duration
	clock     clock.PassiveClock
}

// New returns an Aggregator reading through t.
func New(t transport.Transport, opts ...Option) *Aggregator {
	a := &Aggregator{
		transport: t,
		timeout:   defaults.FetchTimeout,
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.timeout <= 0 {
		a.timeout = defaults.FetchTimeout
	}
	return a
}

// Gather fetches and parses every host. The returned view has one entry per
// host in the order given.
func (a *Aggregator) Gather(ctx context.Context, hosts []string) ClusterView {
	raw := a.FetchAll(ctx, hosts)

	view := ClusterView{
		GatheredAt: a.clock.Now(),
		Entries:    make([]HostEntry, len(raw)),
	}
	for i, r := range raw {
		entry := HostEntry{Host: r.Host, Err: r.Err}
		if r.Err == nil {
			entry.Snapshot, entry.Err = Parse(r.Host, r.Content)
		}
		if entry.Err != nil {
			fetchTotal.WithLabelValues(r.Host, string(entry.Err.Reason)).Inc()
		} else {
			fetchTotal.WithLabelValues(r.Host, resultOK).Inc()
		}
		view.Entries[i] = entry
	}
	return view
}

// FetchAll retrieves every host's raw content concurrently without parsing
// it. Parallelism is bounded by the host count.
func (a *Aggregator) FetchAll(ctx context.Context, hosts []string) []RawResult {
	results := make([]RawResult, len(hosts))
	if len(hosts) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(len(hosts))

	for i, host := range hosts {
		g.Go(func() error {
			results[i] = a.fetch(ctx, host)
			return nil
		})
	}
	_ = g.Wait() // fetches never fail the group

	return results
}

func (a *Aggregator) fetch(ctx context.Context, host string) RawResult {
	fctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := a.clock.Now()
	content, err := a.fetchWithin(fctx, host)
	fetchDuration.WithLabelValues(host).Observe(a.clock.Since(start).Seconds())

	if err == nil && fctx.Err() != nil {
		err = fctx.Err()
	}
	if err != nil {
		he := classify(host, err, fctx.Err(), a.timeout)
		slog.Debug("host fetch failed",
			slog.String("host", host),
			slog.String("reason", string(he.Reason)),
			slog.String("error", err.Error()))
		return RawResult{Host: host, Err: he}
	}
	return RawResult{Host: host, Content: content}
}

type fetchResult struct {
	content []byte
	err     error
}

// fetchWithin returns when the transport answers or ctx is done, whichever
// comes first. Transports that block without watching ctx (a read on a hung
// NFS mount) are abandoned; their goroutine exits once the call returns.
func (a *Aggregator) fetchWithin(ctx context.Context, host string) ([]byte, error) {
	done := make(chan fetchResult, 1)
	go func() {
		content, err := a.transport.Fetch(ctx, host)
		done <- fetchResult{content: content, err: err}
	}()

	select {
	case r := <-done:
		return r.content, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func classify(host string, err, ctxErr error, timeout time.Duration) *HostError {
	switch {
	case stderrors.Is(err, transport.ErrNotFound):
		return &HostError{Host: host, Reason: ReasonNotFound, Message: err.Error(), cause: err}
	case stderrors.Is(ctxErr, context.DeadlineExceeded), stderrors.Is(err, context.DeadlineExceeded):
		return &HostError{
			Host:    host,
			Reason:  ReasonTimeout,
			Message: fmt.Sprintf("fetch timeout after %s", timeout),
			cause:   err,
		}
	default:
		return &HostError{Host: host, Reason: ReasonFetchFailed, Message: err.Error(), cause: err}
	}
}

// Parse interprets one host's raw content. Content that is not a valid
// record, or a record published by another host, is malformed; a record
// carrying an error is a collector error.
func Parse(host string, raw []byte) (*snapshot.HostSnapshot, *HostError) {
	rec, err := snapshot.Decode(raw)
	if err != nil {
		return nil, &HostError{Host: host, Reason: ReasonMalformed, Message: err.Error(), cause: err}
	}
	if transport.ShortHost(rec.Hostname) != transport.ShortHost(host) {
		return nil, &HostError{
			Host:    host,
			Reason:  ReasonMalformed,
			Message: fmt.Sprintf("snapshot belongs to host %q", rec.Hostname),
		}
	}
	if rec.Error != "" {
		return nil, &HostError{
			Host:    host,
			Reason:  ReasonCollectorError,
			Message: "Collector Error: " + rec.Error,
		}
	}

	s := snapshot.FromRecord(rec)
	if s.SkippedRows > 0 {
		slog.Debug("snapshot rows skipped", slog.String("host", host), slog.Int("count", s.SkippedRows))
	}
	return &s, nil
}
