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

// Package dashboard turns a ClusterView into a DisplayModel.
//
// Render is a pure function of its inputs: it performs no I/O and holds no
// state, so any scheduler (the HTTP server refresh loop, the terminal view,
// a one-shot CLI command) can call it once per cycle.
//
//	model := dashboard.Render(view, time.Now(), dashboard.WithStaleAfter(time.Minute))
//
// The model carries one HostCard per configured host, in configured order,
// with the availability summary (free count, free GPU ids, used GPU lines,
// status) and one GPUCard per parsed GPU. Processes that match no GPU are
// listed separately as orphans so they are never lost from the view.
package dashboard
