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

package relay

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

var relayCycleTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gpumon_relay_cycle_total",
		Help: "Total number of relay cycles by outcome",
	},
	[]string{"status"}, // success or error
)

// Fetcher reads raw host content; *aggregator.Aggregator implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, hosts []string) []aggregator.RawResult
}

// Option configures a Relay.
type Option func(*Relay)

// WithInterval sets the cycle interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.interval = d
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.WithTicker) Option {
	return func(r *Relay) {
		r.clock = c
	}
}

// Relay copies host snapshots from a source to a sink transport.
type Relay struct {
	source   Fetcher
	sink     transport.Transport
	hosts    []string
	interval time.Duration
	clock    clock.WithTicker
}

// New returns a relay for hosts.
func New(source Fetcher, sink transport.Transport, hosts []string, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		sink:     sink,
		hosts:    hosts,
		interval: defaults.RelayInterval,
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = defaults.RelayInterval
	}
	return r
}

// Collect reads every host and returns the content to forward. Unreadable
// hosts are replaced by an error record.
func (r *Relay) Collect(ctx context.Context) (map[string][]byte, error) {
	contents := make(map[string][]byte, len(r.hosts))
	for _, res := range r.source.FetchAll(ctx, r.hosts) {
		if res.Err == nil {
			contents[res.Host] = res.Content
			continue
		}
		b, err := snapshot.Encode(snapshot.Record{Hostname: res.Host, Error: res.Err.Message})
		if err != nil {
			return nil, err
		}
		contents[res.Host] = b
	}
	return contents, nil
}

// Cycle collects all hosts and publishes them to the sink.
func (r *Relay) Cycle(ctx context.Context) error {
	contents, err := r.Collect(ctx)
	if err != nil {
		relayCycleTotal.WithLabelValues("error").Inc()
		return err
	}

	if bp, ok := r.sink.(transport.BatchPublisher); ok {
		err = bp.PublishAll(ctx, contents)
	} else {
		err = r.publishEach(ctx, contents)
	}
	if err != nil {
		relayCycleTotal.WithLabelValues("error").Inc()
		return errors.WrapWithContext(errors.ErrCodePublishFailed, "relay publish failed", err,
			map[string]any{"sink": r.sink.Name(), "hosts": len(contents)})
	}

	relayCycleTotal.WithLabelValues("success").Inc()
	slog.Info("relayed snapshots", slog.String("sink", r.sink.Name()), slog.Int("hosts", len(contents)))
	return nil
}

func (r *Relay) publishEach(ctx context.Context, contents map[string][]byte) error {
	var errs []error
	// configured order keeps logs stable
	for _, host := range r.hosts {
		c, ok := contents[host]
		if !ok {
			continue
		}
		if err := r.sink.Publish(ctx, host, c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
		}
	}
	return stderrors.Join(errs...)
}

// Run cycles immediately and then every interval until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	slog.Info("starting relay",
		slog.String("sink", r.sink.Name()),
		slog.Int("hosts", len(r.hosts)),
		slog.Duration("interval", r.interval))

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Cycle(ctx); err != nil && ctx.Err() == nil {
			slog.Error("relay cycle failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			slog.Info("relay stopped")
			return nil
		case <-ticker.C():
		}
	}
}
