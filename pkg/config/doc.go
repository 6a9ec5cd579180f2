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

// Package config loads gpumon settings.
//
// Values are resolved in this order, highest first:
//
//  1. command-line flags that were explicitly set
//  2. environment variables prefixed GPUMON_ (GPUMON_FETCH_TIMEOUT=5s)
//  3. the config file: --config, or gpumon.yaml in the working directory
//     or $HOME/.gpumon
//  4. built-in defaults
//
// github_token additionally falls back to GITHUB_TOKEN. List values such as
// hosts accept a comma-separated string from the environment.
//
// Example gpumon.yaml:
//
//	hosts: [zxcpu1, zxcpu2, zxcpu3]
//	transport: gist://0123456789abcdef
//	refresh_interval: 15s
//	stale_after: 2m
package config
