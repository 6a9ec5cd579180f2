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

// Package relay forwards every host's snapshot from one transport to another.
//
// A typical deployment has producers writing to a shared NFS export and one
// relay host republishing all of them to a gist that the dashboard reads:
//
//	src, _ := transport.New("file:///export/{host}/monitor/status.json", opts)
//	sink, _ := transport.New("gist://abc123", opts)
//	r := relay.New(aggregator.New(src), sink, hosts, relay.WithInterval(10*time.Second))
//	err := r.Run(ctx)
//
// Each cycle reads all hosts concurrently, then publishes them in one call
// when the sink implements transport.BatchPublisher, or host by host
// otherwise. A host that cannot be read is forwarded as an error record so
// the dashboard still shows it as Down. Content is forwarded verbatim; the
// relay does not parse snapshots.
package relay
