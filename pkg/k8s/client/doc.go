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

// Package client builds the Kubernetes client used by the ConfigMap snapshot
// transport.
//
// GetKubeClient returns a process-wide client created on first use, so the
// producer, relay and dashboard share one connection pool:
//
//	cs, _, err := client.GetKubeClient()
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//	cm, err := cs.CoreV1().ConfigMaps("monitoring").Get(ctx, "gpumon", metav1.GetOptions{})
//
// BuildKubeClient bypasses the cache for an explicit kubeconfig.
//
// # Configuration Discovery
//
// With an empty kubeconfig path the client checks, in order:
//   - the KUBECONFIG environment variable
//   - ~/.kube/config when it exists
//   - the in-cluster service account
//
// Producers publish one small ConfigMap update per tick, so the client is
// configured with a modest QPS and a gpumon user agent.
package client
