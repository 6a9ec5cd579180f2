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

// Package aggregator gathers every configured host's latest snapshot into
// one ClusterView.
//
// Gather fetches all hosts concurrently, one goroutine per host, each under
// its own timeout. A failing host never affects the others: fetch goroutines
// do not return errors to the group, so nothing is canceled early, and
// Gather waits for every fetch before assembling the view. Results are
// written into a slot per configured position, so the view always has
// exactly one entry per host in configured order, whatever order the
// fetches complete in.
//
// Each entry holds either a parsed snapshot or a HostError whose Reason is
// one of:
//
//	not_found        nothing published for the host
//	timeout          the fetch exceeded its deadline
//	fetch_failed     any other transport error
//	malformed        content is not a valid snapshot record
//	collector_error  the producer published an error record
//
// # Usage
//
//	agg := aggregator.New(tr, aggregator.WithFetchTimeout(10*time.Second))
//	view := agg.Gather(ctx, []string{"zxcpu1", "zxcpu2"})
//	for _, e := range view.Entries {
//	    if e.Err != nil {
//	        fmt.Println(e.Host, e.Err.Reason, e.Err.Message)
//	    }
//	}
package aggregator
