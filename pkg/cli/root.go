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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

const (
	name           = "gpumon"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "GPU cluster monitor",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `gpumon collects per-host GPU state, publishes it through a shared
transport, and renders a cluster-wide view of free and busy GPUs.

collect - publish this host's snapshot every interval
relay   - copy every host's snapshot from one transport to another
serve   - serve the cluster view over HTTP
top     - show the cluster view in the terminal
view    - print the cluster view once
gist    - manage the GitHub gist used by the gist transport`,
		Flags: globalFlags(),
		Commands: []*cli.Command{
			collectCmd(),
			relayCmd(),
			serveCmd(),
			topCmd(),
			viewCmd(),
			gistCmd(),
			versionCmd(),
		},
		Action: commandLister,
	}
}

// commandLister prints the visible sub-commands when none is given.
func commandLister(_ context.Context, cmd *cli.Command) error {
	if cmd == nil {
		return nil
	}
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "usage: %s <command> [flags]\n\ncommands:\n", cmd.Name)
	for _, c := range cmd.Commands {
		if c.Hidden {
			continue
		}
		fmt.Fprintf(w, "  %-8s %s\n", c.Name, c.Usage)
	}
	return nil
}
