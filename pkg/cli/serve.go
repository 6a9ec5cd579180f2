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

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/config"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Serve the cluster view over HTTP.",
		Description: `Gathers every configured host each refresh interval and serves the
rendered view:

  GET /v1/cluster          full cluster view (?format=json|yaml)
  GET /v1/hosts/{host}     one host card
  GET /health, /ready      liveness and readiness
  GET /metrics             Prometheus metrics

Readiness turns on after the first refresh completes.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address",
			},
			refreshIntervalFlag(),
			staleAfterFlag(),
			githubTokenFlag(),
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
			return newServer(cfg, agg).Run(ctx)
		},
	}
}

func newServer(cfg *config.Config, g server.Gatherer) *server.Server {
	sc := server.NewConfig()
	sc.Address = cfg.Listen
	sc.RefreshInterval = cfg.RefreshInterval
	sc.StaleAfter = cfg.StaleAfter

	return server.New(
		server.WithConfig(sc),
		server.WithName(name),
		server.WithVersion(version),
		server.WithSource(g, cfg.Hosts),
	)
}
