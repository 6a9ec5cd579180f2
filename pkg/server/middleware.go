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
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
)

// middleware decorates a dashboard route handler.
type middleware func(http.HandlerFunc) http.HandlerFunc

// withMiddleware wraps a dashboard route. The first entry is outermost, so a
// recovered panic or a rejected request still carries the request id.
func (s *Server) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	chain := []middleware{
		s.metricsMiddleware,
		s.versionMiddleware,
		s.requestIDMiddleware,
		s.recoverMiddleware,
		s.rateLimitMiddleware,
		s.accessLogMiddleware,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

// requestIDFrom returns the id assigned by requestIDMiddleware, or "".
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// routeOf names the matched mux pattern, falling back to the raw path.
func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}

func (s *Server) versionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := negotiateAPIVersion(r)
		SetAPIVersionHeader(w, v)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyAPIVersion, v)))
	}
}

// requestIDMiddleware keeps a caller's X-Request-Id only when it is a UUID.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	}
}

// rateLimitMiddleware shares one token bucket across all dashboard routes;
// a refresh-happy browser tab on /v1/cluster can starve /v1/hosts/{host}.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	limit := strconv.Itoa(int(s.config.RateLimit))
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow() {
			rateLimitRejects.Inc()
			w.Header().Set("Retry-After", "1")
			WriteError(w, r, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded,
				"Too many dashboard requests", true, map[string]any{
					"route": routeOf(r),
					"limit": s.config.RateLimit,
					"burst": s.config.RateLimitBurst,
				})
			return
		}
		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(s.rateLimiter.Tokens())))
		next.ServeHTTP(w, r)
	}
}

// recoverMiddleware turns a handler panic into an INTERNAL error body so a
// bug in one render path does not drop the connection.
func (s *Server) recoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			panicRecoveries.Inc()
			slog.Error("dashboard handler panicked",
				slog.Any("panic", v),
				slog.String("requestID", requestIDFrom(r.Context())),
				slog.String("route", routeOf(r)),
				slog.String("host", r.PathValue("host")))
			WriteError(w, r, http.StatusInternalServerError, errors.ErrCodeInternal,
				"Dashboard handler failed", true, map[string]any{"route": routeOf(r)})
		}()
		next.ServeHTTP(w, r)
	}
}

func (s *Server) accessLogMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		attrs := []any{
			slog.String("requestID", requestIDFrom(r.Context())),
			slog.String("method", r.Method),
			slog.String("route", routeOf(r)),
			slog.Int("status", rw.Status()),
			slog.Duration("duration", time.Since(start)),
		}
		if host := r.PathValue("host"); host != "" {
			attrs = append(attrs, slog.String("host", host))
		}
		if f := r.URL.Query().Get("format"); f != "" {
			attrs = append(attrs, slog.String("format", f))
		}
		slog.Debug("dashboard request", attrs...)
	}
}
