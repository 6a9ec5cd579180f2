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

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshot"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/snapshotter"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

func gistCmd() *cli.Command {
	return &cli.Command{
		Name:  "gist",
		Usage: "Manage the GitHub gist used by the gist transport.",
		Commands: []*cli.Command{
			gistCreateCmd(),
		},
	}
}

func gistCreateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "create",
		EnableShellCompletion: true,
		Usage:                 "Create a public gist seeded with this host's snapshot.",
		Description: `Captures one snapshot of this host, creates a new public gist holding it
as <host>.json and prints the gist id. Use the printed URI as --transport
for collectors and readers.

Requires a GitHub token with the gist scope (--github-token or GITHUB_TOKEN).`,
		Flags: []cli.Flag{
			ownerLookupFlag(),
			queryTimeoutFlag(),
			githubTokenFlag(),
			&cli.StringFlag{
				Name:   "api-url",
				Usage:  "GitHub API base URL",
				Hidden: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			c, err := newCollector(cfg)
			if err != nil {
				return err
			}

			opts := cfg.TransportOptions()
			opts.GistAPIURL = cmd.String("api-url")
			g := transport.NewGistTransport("", opts)

			p := snapshotter.NewProducer(c, g, snapshotter.WithHostname(cfg.Hostname))
			content, err := snapshot.Encode(p.Capture(ctx))
			if err != nil {
				return err
			}

			id, err := g.Create(ctx, p.Hostname(), content)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "gist id:   %s\ntransport: %s%s\n", id, transport.GistScheme, id)
			return nil
		},
	}
}
