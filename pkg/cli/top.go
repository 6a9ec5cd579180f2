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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/tui"
)

func topCmd() *cli.Command {
	return &cli.Command{
		Name:                  "top",
		EnableShellCompletion: true,
		Usage:                 "Show the cluster view in the terminal.",
		Description: `Renders one row per host (Server, Free, Free GPUs, Used GPUs,
Status) and refreshes every refresh interval. Press q or Ctrl-C to quit.`,
		Flags: []cli.Flag{
			refreshIntervalFlag(),
			staleAfterFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			agg, err := newAggregator(cfg)
			if err != nil {
				return err
			}
			return tui.Run(ctx, agg, cfg.Hosts,
				tui.WithInterval(cfg.RefreshInterval),
				tui.WithStaleAfter(cfg.StaleAfter),
			)
		},
	}
}
