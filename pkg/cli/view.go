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
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/config"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/dashboard"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/serializer"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

func viewCmd() *cli.Command {
	return &cli.Command{
		Name:                  "view",
		EnableShellCompletion: true,
		Usage:                 "Gather every host once and print the cluster view.",
		Description: `Fetches all configured hosts in parallel, renders the cluster view and
writes it as a table, JSON or YAML.

Examples:
  gpumon view
  gpumon view --format json --output cluster.json
  gpumon view --transport gist://<id> --format yaml`,
		Flags: []cli.Flag{
			staleAfterFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			agg, err := newAggregator(cfg)
			if err != nil {
				return err
			}

			view := agg.Gather(ctx, cfg.Hosts)
			model := dashboard.Render(view, time.Now(), dashboard.WithStaleAfter(cfg.StaleAfter))

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			if err := w.Serialize(ctx, model); err != nil {
				_ = w.Close()
				return fmt.Errorf("failed to write cluster view: %w", err)
			}
			return w.Close()
		},
	}
}

// newAggregator returns an aggregator reading through the configured transport.
func newAggregator(cfg *config.Config) (*aggregator.Aggregator, error) {
	t, err := transport.New(cfg.Transport, cfg.TransportOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid transport: %w", err)
	}
	return aggregator.New(t, aggregator.WithFetchTimeout(cfg.FetchTimeout)), nil
}
