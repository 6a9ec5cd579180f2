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

package snapshotter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/collector/gpu"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

// Collector captures the raw GPU query outputs of the local host.
type Collector interface {
	Collect(ctx context.Context) (*gpu.Output, error)
}

// NotifyFunc sends a service manager notification such as "READY=1".
type NotifyFunc func(state string) (bool, error)

func sdNotify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// Option configures a Producer.
type Option func(*Producer)

// WithHostname sets the name the snapshots are published under.
func WithHostname(name string) Option {
	return func(p *Producer) {
		p.hostname = name
	}
}

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(p *Producer) {
		p.interval = d
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.WithTicker) Option {
	return func(p *Producer) {
		p.clock = c
	}
}

// WithNotify replaces the systemd notifier.
func WithNotify(fn NotifyFunc) Option {
	return func(p *Producer) {
		p.notify = fn
	}
}

// Producer captures and publishes one snapshot per tick.
type Producer struct {
	hostname  string
	interval  time.Duration
	collector Collector
	transport transport.Transport
	clock     clock.WithTicker
	notify    NotifyFunc
	ready     bool
}

// NewProducer returns a producer for the local host. The hostname defaults
// to os.Hostname and the interval to defaults.CollectInterval.
func NewProducer(c Collector, t transport.Transport, opts ...Option) *Producer {
	p := &Producer{
		interval:  defaults.CollectInterval,
		collector: c,
		transport: t,
		clock:     clock.RealClock{},
		notify:    sdNotify,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.hostname == "" {
		if h, err := os.Hostname(); err == nil {
			p.hostname = h
		} else {
			slog.Warn("failed to resolve hostname", slog.String("error", err.Error()))
			p.hostname = "localhost"
		}
	}
	if p.interval <= 0 {
		p.interval = defaults.CollectInterval
	}
	return p
}

// Hostname returns the name snapshots are published under.
func (p *Producer) Hostname() string { return p.hostname }

// Capture runs the queries once and assembles a Record. It never fails: a
// GPU query failure becomes an error-only record.
func (p *Producer) Capture(ctx context.Context) snapshot.Record {
	start := p.clock.Now()
	defer func() {
		snapshotCaptureDuration.Observe(p.clock.Since(start).Seconds())
	}()

	out, err := p.collector.Collect(ctx)
	rec := snapshot.NewRecord(p.hostname, start)
	if err != nil {
		snapshotCaptureTotal.WithLabelValues(captureQueryFailed).Inc()
		slog.Error("gpu query failed", slog.String("host", p.hostname), slog.String("error", err.Error()))
		rec.Error = err.Error()
		return rec
	}

	if out.Degraded != nil {
		snapshotCaptureTotal.WithLabelValues(captureDegraded).Inc()
		slog.Warn("process attribution degraded", slog.String("host", p.hostname), slog.String("error", out.Degraded.Error()))
	} else {
		snapshotCaptureTotal.WithLabelValues(captureOK).Inc()
	}
	return rec.WithOutputs(out.GPU, out.Proc, out.User)
}

// Tick captures one snapshot and publishes it once.
func (p *Producer) Tick(ctx context.Context) error {
	rec := p.Capture(ctx)

	content, err := snapshot.Encode(rec)
	if err != nil {
		snapshotPublishTotal.WithLabelValues(publishError).Inc()
		return err
	}

	if err := p.transport.Publish(ctx, p.hostname, content); err != nil {
		snapshotPublishTotal.WithLabelValues(publishError).Inc()
		return fmt.Errorf("failed to publish snapshot via %s: %w", p.transport.Name(), err)
	}
	snapshotPublishTotal.WithLabelValues(publishSuccess).Inc()

	slog.Debug("snapshot published",
		slog.String("host", p.hostname),
		slog.String("transport", p.transport.Name()),
		slog.String("time", rec.ReadableTime))
	return nil
}

// Run ticks immediately and then every interval until ctx is canceled.
// Tick failures are logged and never end the loop.
func (p *Producer) Run(ctx context.Context) error {
	slog.Info("starting snapshot producer",
		slog.String("host", p.hostname),
		slog.String("transport", p.transport.Name()),
		slog.Duration("interval", p.interval))

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.runTick(ctx)

		select {
		case <-ctx.Done():
			slog.Info("snapshot producer stopped", slog.String("host", p.hostname))
			return nil
		case <-ticker.C():
		}
	}
}

func (p *Producer) runTick(ctx context.Context) {
	if err := p.Tick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("snapshot tick failed", slog.String("host", p.hostname), slog.String("error", err.Error()))
	} else if !p.ready {
		p.ready = true
		p.sendNotify(daemon.SdNotifyReady)
	}
	p.sendNotify(daemon.SdNotifyWatchdog)
}

func (p *Producer) sendNotify(state string) {
	if p.notify == nil {
		return
	}
	if _, err := p.notify(state); err != nil {
		slog.Debug("sd_notify failed", slog.String("state", state), slog.String("error", err.Error()))
	}
}
