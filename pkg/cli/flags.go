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
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/config"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/logging"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/serializer"
)

type flagKind int

const (
	kindString flagKind = iota
	kindStrings
	kindDuration
)

// configFlag ties a flag to the config key it overrides.
type configFlag struct {
	flag string
	key  string
	kind flagKind
}

// configFlags lists every flag that overrides a config key. Only flags
// explicitly set on the command line take part, so file and env values
// survive flag defaults.
var configFlags = []configFlag{
	{"hosts", config.KeyHosts, kindStrings},
	{"hostname", config.KeyHostname, kindString},
	{"transport", config.KeyTransport, kindString},
	{"local-path", config.KeyLocalPath, kindString},
	{"relay-sink", config.KeyRelaySink, kindString},
	{"github-token", config.KeyGitHubToken, kindString},
	{"kubeconfig", config.KeyKubeconfig, kindString},
	{"interval", config.KeyInterval, kindDuration},
	{"relay-interval", config.KeyRelayInterval, kindDuration},
	{"refresh-interval", config.KeyRefreshInterval, kindDuration},
	{"fetch-timeout", config.KeyFetchTimeout, kindDuration},
	{"query-timeout", config.KeyQueryTimeout, kindDuration},
	{"stale-after", config.KeyStaleAfter, kindDuration},
	{"owner-lookup", config.KeyOwnerLookup, kindString},
	{"listen", config.KeyListen, kindString},
	{"log-level", config.KeyLogLevel, kindString},
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format (%v)", serializer.SupportedFormats()),
		Value:   string(serializer.FormatTable),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "kubeconfig",
		Usage: "kubeconfig for the cm:// transport (default: in-cluster or $KUBECONFIG)",
	}
}

func githubTokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "github-token",
		Usage: "GitHub token for gist publishes (default: $GITHUB_TOKEN)",
	}
}

func ownerLookupFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "owner-lookup",
		Usage: "process owner lookup: ps or gopsutil",
	}
}

func queryTimeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "query-timeout",
		Usage: "timeout for each external command",
	}
}

func staleAfterFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "stale-after",
		Usage: "mark hosts whose snapshot is older than this as stale (0 disables)",
	}
}

func refreshIntervalFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "refresh-interval",
		Usage: "cluster view refresh interval",
	}
}

// globalFlags are inherited by every sub-command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: ./gpumon.yaml or $HOME/.gpumon/gpumon.yaml)",
			Sources: cli.EnvVars("GPUMON_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "hostname",
			Usage: "name of this host; collectors publish under it (default: os hostname)",
		},
		&cli.StringSliceFlag{
			Name:  "hosts",
			Usage: "hosts in display order (comma separated or repeated)",
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "snapshot transport URI: file path, file://, gist://<id> or cm://<namespace>/<name>",
		},
		&cli.StringFlag{
			Name:  "local-path",
			Usage: "file this host reads and writes directly with the file transport",
		},
		&cli.DurationFlag{
			Name:  "fetch-timeout",
			Usage: "timeout for each host fetch",
		},
	}
}

// overrides returns the values of explicitly set config flags keyed by config key.
func overrides(cmd *cli.Command) map[string]any {
	out := make(map[string]any)
	for _, f := range configFlags {
		if !cmd.IsSet(f.flag) {
			continue
		}
		switch f.kind {
		case kindString:
			out[f.key] = cmd.String(f.flag)
		case kindStrings:
			out[f.key] = cmd.StringSlice(f.flag)
		case kindDuration:
			out[f.key] = cmd.Duration(f.flag)
		}
	}
	return out
}

// loadConfig resolves the configuration for cmd and initializes logging.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"), overrides(cmd))
	if err != nil {
		return nil, err
	}

	logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.LogLevel)
	slog.Debug("configuration loaded",
		slog.String("command", cmd.Name),
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("transport", cfg.Transport),
		slog.Any("hosts", cfg.Hosts))
	return cfg, nil
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f, err := serializer.ParseFormat(cmd.String("format"))
	if err != nil {
		return "", fmt.Errorf("invalid --format: %w", err)
	}
	return f, nil
}
