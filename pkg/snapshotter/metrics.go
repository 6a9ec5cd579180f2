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

package snapshotter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	captureOK          = "ok"
	captureQueryFailed = "query_failed"
	captureDegraded    = "degraded"

	publishSuccess = "success"
	publishError   = "error"
)

var (
	snapshotCaptureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpumon_snapshot_capture_duration_seconds",
			Help:    "Time taken to run the GPU, process and owner queries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	snapshotCaptureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpumon_snapshot_capture_total",
			Help: "Total number of snapshot captures by outcome",
		},
		[]string{"status"}, // ok, query_failed, degraded
	)

	snapshotPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpumon_snapshot_publish_total",
			Help: "Total number of snapshot publish attempts",
		},
		[]string{"status"}, // success or error
	)
)
