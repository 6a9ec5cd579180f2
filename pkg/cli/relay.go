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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/relay"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

func relayCmd() *cli.Command {
	return &cli.Command{
		Name:                  "relay",
		EnableShellCompletion: true,
		Usage:                 "Copy every host's snapshot from the transport to a relay sink.",
		Description: `Reads all configured hosts through --transport and republishes the
content unchanged through --relay-sink, batching into one request when the
sink supports it. Hosts that cannot be read are skipped for that cycle.

Examples:
  gpumon relay --transport /export/{host}/monitor/status.json --relay-sink gist://<id>
  gpumon relay --relay-sink cm://monitoring/gpumon --relay-interval 30s`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "relay-sink",
				Usage: "destination transport URI",
			},
			&cli.DurationFlag{
				Name:  "relay-interval",
				Usage: "relay cycle interval",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run a single relay cycle and exit",
			},
			githubTokenFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.RelaySink == "" {
				return fmt.Errorf("--relay-sink is required")
			}

			source, err := newAggregator(cfg)
			if err != nil {
				return err
			}
			sink, err := transport.New(cfg.RelaySink, cfg.TransportOptions())
			if err != nil {
				return fmt.Errorf("invalid relay sink: %w", err)
			}

			r := relay.New(source, sink, cfg.Hosts, relay.WithInterval(cfg.RelayInterval))
			if cmd.Bool("once") {
				return r.Cycle(ctx)
			}
			return r.Run(ctx)
		},
	}
}
