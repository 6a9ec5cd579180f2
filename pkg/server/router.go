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

package server

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/serializer"
)

const (
	routeCluster = "/v1/cluster"
	routeHost    = "/v1/hosts/{host}"
	routeHealth  = "/health"
	routeReady   = "/ready"
	routeMetrics = "/metrics"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// System endpoints (no rate limiting)
	mux.HandleFunc(routeHealth, s.handleHealth)
	mux.HandleFunc(routeReady, s.handleReady)
	mux.Handle(routeMetrics, promhttp.Handler())

	// API endpoints with middleware
	mux.HandleFunc(routeCluster, s.withMiddleware(s.handleCluster))
	mux.HandleFunc(routeHost, s.withMiddleware(s.handleHost))

	for path, h := range s.config.Handlers {
		mux.HandleFunc(path, s.withMiddleware(h))
	}

	return mux
}

func (s *Server) routes() []string {
	routes := []string{
		"GET " + routeCluster,
		"GET " + routeHost,
		"GET " + routeHealth,
		"GET " + routeReady,
		"GET " + routeMetrics,
	}
	extra := make([]string, 0, len(s.config.Handlers))
	for path := range s.config.Handlers {
		if path != "/" {
			extra = append(extra, path)
		}
	}
	sort.Strings(extra)
	return append(routes, extra...)
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{"method": r.Method})
		return
	}
	if r.URL.Path != "/" {
		WriteError(w, r, http.StatusNotFound, errors.ErrCodeNotFound,
			"Route not found", false, map[string]any{"path": r.URL.Path})
		return
	}

	slog.Debug("handling default route",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)

	resp := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		Ready     bool     `json:"ready"`
		Timestamp string   `json:"timestamp"`
		Routes    []string `json:"routes"`
	}{
		Name:      s.config.Name,
		Version:   s.config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes:    s.routes(),
	}

	s.mu.RLock()
	resp.Ready = s.ready
	s.mu.RUnlock()

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// handleCluster handles GET /v1/cluster
func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	format, ok := s.preflight(w, r)
	if !ok {
		return
	}
	model, ok := s.Model()
	if !ok {
		writeNotReady(w, r)
		return
	}
	serializer.Respond(w, http.StatusOK, format, model)
}

// handleHost handles GET /v1/hosts/{host}
func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	format, ok := s.preflight(w, r)
	if !ok {
		return
	}
	model, ok := s.Model()
	if !ok {
		writeNotReady(w, r)
		return
	}

	host := r.PathValue("host")
	card, ok := model.Host(host)
	if !ok {
		WriteError(w, r, http.StatusNotFound, errors.ErrCodeNotFound,
			"Unknown host", false, map[string]any{"host": host})
		return
	}
	serializer.Respond(w, http.StatusOK, format, card)
}

// preflight validates method and ?format= for the dashboard routes.
func (s *Server) preflight(w http.ResponseWriter, r *http.Request) (serializer.Format, bool) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, map[string]any{"method": r.Method})
		return "", false
	}

	raw := r.URL.Query().Get("format")
	if raw == "" {
		return serializer.FormatJSON, true
	}
	format, err := serializer.ParseFormat(raw)
	if err != nil || format == serializer.FormatTable {
		WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Unsupported format", false, map[string]any{
				"format":    raw,
				"supported": []string{string(serializer.FormatJSON), string(serializer.FormatYAML)},
			})
		return "", false
	}

	w.Header().Set("Cache-Control", "no-store")
	return format, true
}

func writeNotReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	WriteError(w, r, http.StatusServiceUnavailable, errors.ErrCodeUnavailable,
		"Cluster view not yet available", true, nil)
}
