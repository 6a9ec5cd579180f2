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

// Package transport makes a host's snapshot retrievable by hostname.
//
// Every implementation satisfies one contract: after Publish(host, c)
// returns nil, Fetch(host) returns c or a later complete value, never a
// partial mix. Each host owns one key, so producers on different hosts
// never conflict; same-host overwrites are last-write-wins.
//
// # Implementations
//
// Selected by URI through New:
//
//	file:///export/{host}/monitor/status.json   one file per host, atomic rename
//	status.json                                  bare path, same as file://
//	gist://<gist-id>                             GitHub Gist, one file per host
//	cm://<namespace>/<name>                      Kubernetes ConfigMap, one key per host
//
// In file paths {host} expands to the short hostname (text before the first
// dot). When Options.LocalHost matches the requested host, Options.LocalPath
// is used instead, for readers co-located with the producer.
//
// # Batching
//
// Transports that can write many hosts in one call implement BatchPublisher.
// The gist transport does: the relay updates every host file with a single
// PATCH.
//
// # Errors
//
// Fetch returns an error matching ErrNotFound (via errors.Is) when no value
// has been published for a host. Remote transports retry transient publish
// failures with exponential backoff; permanent failures return immediately.
package transport
