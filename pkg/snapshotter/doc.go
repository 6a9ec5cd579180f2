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

// Package snapshotter runs the per-host snapshot producer.
//
// On every tick the Producer captures the local GPU state exactly once and
// publishes it exactly once through a transport.Transport. Failures never
// end the loop:
//
//   - a failed GPU query yields an error-only record, which is still published
//   - a failed process or owner query yields a record with empty process data
//   - a failed publish is logged and counted; the next tick tries again
//
// Only cancellation of the context passed to Run stops the producer.
//
// # Usage
//
//	p := snapshotter.NewProducer(gpu.NewCollector(), tr,
//	    snapshotter.WithInterval(5*time.Second))
//	if err := p.Run(ctx); err != nil {
//	    return err
//	}
//
// # systemd
//
// When started by systemd with Type=notify the producer reports READY=1
// after its first successful publish and WATCHDOG=1 on every tick. Outside
// systemd both notifications are no-ops.
//
// # Metrics
//
//   - gpumon_snapshot_capture_duration_seconds
//   - gpumon_snapshot_capture_total{status="ok|query_failed|degraded"}
//   - gpumon_snapshot_publish_total{status="success|error"}
package snapshotter
