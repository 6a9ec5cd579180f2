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

// Package errors provides structured error types for better observability
// and programmatic error handling across the collection and aggregation
// pipeline.
//
// Every failure in gpumon is contained at the smallest unit it originates
// in. The error codes mirror that taxonomy:
//
//   - ErrCodeQueryFailed: the primary GPU query failed; the snapshot carries only an error
//   - ErrCodeDegraded: a process or owner sub-query failed; the snapshot is still valid
//   - ErrCodePublishFailed: a transport write failed; retried on the next tick
//   - ErrCodeFetchFailed: the aggregator could not retrieve a host's snapshot
//   - ErrCodeMalformed: fetched content was not a valid snapshot record
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeQueryFailed,
//	    "nvidia-smi failed",
//	    cause,
//	    map[string]any{
//	        "command": "nvidia-smi",
//	        "host":    hostname,
//	    },
//	)
//
// Use CodeOf to recover the classification from a wrapped error chain:
//
//	if errors.CodeOf(err) == errors.ErrCodeTimeout {
//	    // ...
//	}
package errors
