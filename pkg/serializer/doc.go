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

// Package serializer writes gpumon values as JSON, YAML, or tables.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, two-space indented
//   - Used by "gpumon view -o json" and every HTTP response by default
//
// YAML:
//   - Human-readable with preserved structure
//   - gopkg.in/yaml.v3 package
//   - Used by "gpumon view -o yaml" and "?format=yaml"
//
// Table:
//   - Values implementing Tabular render as aligned columns
//   - Anything else is flattened into FIELD/VALUE pairs
//
// # Usage
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	defer w.Close()
//	if err := w.Serialize(ctx, model); err != nil {
//		return err
//	}
//
// For HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
//	serializer.Respond(w, http.StatusOK, serializer.FormatYAML, data)
//
// Responses are encoded into a buffer before the status line is written so
// an encoding failure yields a clean 500 instead of a truncated body.
package serializer
