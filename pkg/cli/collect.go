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

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/collector/gpu"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/config"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshotter"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "collect",
		EnableShellCompletion: true,
		Usage:                 "Publish this host's GPU snapshot every interval.",
		Description: `Runs nvidia-smi and the process owner lookup, then publishes one
snapshot per interval through the configured transport. Failed ticks are
logged and retried on the next interval. Under systemd the producer reports
READY=1 after the first tick.

Examples:
  gpumon collect --transport /export/{host}/monitor/status.json
  gpumon collect --transport gist://<id> --interval 10s
  gpumon collect --transport cm://monitoring/gpumon --once`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "publish interval",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "publish a single snapshot and exit",
			},
			ownerLookupFlag(),
			queryTimeoutFlag(),
			githubTokenFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			p, err := newProducer(cfg)
			if err != nil {
				return err
			}

			if cmd.Bool("once") {
				return p.Tick(ctx)
			}
			return p.Run(ctx)
		},
	}
}

// newProducer wires the GPU collector and the publish transport.
func newProducer(cfg *config.Config) (*snapshotter.Producer, error) {
	c, err := newCollector(cfg)
	if err != nil {
		return nil, err
	}

	t, err := transport.New(cfg.Transport, cfg.TransportOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid transport: %w", err)
	}
	slog.Debug("collector configured",
		slog.String("owner_lookup", cfg.OwnerLookup),
		slog.String("transport", t.Name()))

	return snapshotter.NewProducer(c, t,
		snapshotter.WithHostname(cfg.Hostname),
		snapshotter.WithInterval(cfg.Interval),
	), nil
}

func newCollector(cfg *config.Config) (*gpu.Collector, error) {
	owners, err := gpu.NewOwnerLookup(cfg.OwnerLookup, gpu.ExecRunner)
	if err != nil {
		return nil, err
	}
	return gpu.NewCollector(
		gpu.WithOwnerLookup(owners),
		gpu.WithQueryTimeout(cfg.QueryTimeout),
	), nil
}
