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

package serializer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gopkg.in/yaml.v3"
)

type testData struct {
	Message string `json:"message" yaml:"message"`
	Code    int    `json:"code" yaml:"code"`
}

func TestRespondJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusOK, testData{Message: "success", Code: 200})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var result testData
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result.Message != "success" || result.Code != 200 {
		t.Errorf("unexpected body: %+v", result)
	}
}

func TestRespondJSON_DifferentStatusCodes(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable} {
		w := httptest.NewRecorder()
		RespondJSON(w, code, testData{Code: code})
		if w.Code != code {
			t.Errorf("expected status %d, got %d", code, w.Code)
		}
	}
}

func TestRespondJSON_EncodingError(t *testing.T) {
	w := httptest.NewRecorder()

	// channels cannot be encoded
	RespondJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct == "application/json" {
		t.Error("expected no JSON content type on encoding failure")
	}
}

func TestRespondYAML(t *testing.T) {
	w := httptest.NewRecorder()
	RespondYAML(w, http.StatusOK, testData{Message: "yaml", Code: 7})

	if ct := w.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("expected Content-Type application/yaml, got %s", ct)
	}

	var result testData
	if err := yaml.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result.Message != "yaml" || result.Code != 7 {
		t.Errorf("unexpected body: %+v", result)
	}
}

func TestRespond_Format(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "application/json"},
		{FormatYAML, "application/yaml"},
		{FormatTable, "application/json"},
		{"", "application/json"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w := httptest.NewRecorder()
			Respond(w, http.StatusOK, tt.format, testData{})
			if ct := w.Header().Get("Content-Type"); ct != tt.want {
				t.Errorf("expected Content-Type %s, got %s", tt.want, ct)
			}
		})
	}
}
