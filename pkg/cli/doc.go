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

// Package cli implements the gpumon command-line interface.
//
// # Overview
//
// gpumon runs in three roles around a shared snapshot transport: every GPU
// host runs a collector that publishes its own snapshot, readers gather all
// hosts and render a cluster view, and an optional relay copies snapshots
// from one transport to another (for example from an NFS export to a gist).
//
// # Commands
//
// collect - Publish this host's snapshot every interval:
//
//	gpumon collect --transport /export/{host}/monitor/status.json
//
// relay - Copy every host's snapshot to another transport:
//
//	gpumon relay --relay-sink gist://<id>
//
// serve - Serve the cluster view over HTTP:
//
//	gpumon serve --listen :8080
//
// top - Show the cluster view in the terminal:
//
//	gpumon top --refresh-interval 5s
//
// view - Print the cluster view once:
//
//	gpumon view [--output FILE] [--format table|json|yaml]
//
// gist create - Create the gist used by the gist transport:
//
//	gpumon gist create --github-token $TOKEN
//
// # Configuration
//
// Settings resolve in this order, highest first: explicitly set flags,
// GPUMON_* environment variables, the config file (./gpumon.yaml,
// $HOME/.gpumon/gpumon.yaml or --config) and built-in defaults. The gist
// token also falls back to GITHUB_TOKEN.
//
// # Exit Codes
//
//	0  Success
//	1  Invalid configuration or execution failure
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/gpu-cluster-monitor/pkg/cli.version=1.0.0'"
package cli
