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
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/aggregator"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/dashboard"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
)

// Gatherer produces one ClusterView per call; *aggregator.Aggregator
// implements it.
type Gatherer interface {
	Gather(ctx context.Context, hosts []string) aggregator.ClusterView
}

// Option is a functional option for configuring Server instances.
type Option func(*Server)

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithName sets the server name reported by the root route.
func WithName(name string) Option {
	return func(s *Server) {
		s.config.Name = name
	}
}

// WithVersion sets the server version reported by the root route.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.config.Version = version
	}
}

// WithSource sets the gatherer and host list behind the dashboard routes.
func WithSource(g Gatherer, hosts []string) Option {
	return func(s *Server) {
		s.source = g
		s.hosts = hosts
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.WithTicker) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// Server serves the cached cluster DisplayModel over HTTP.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	source      Gatherer
	hosts       []string
	clock       clock.WithTicker

	mu    sync.RWMutex
	model *dashboard.DisplayModel
	ready bool
}

// New creates a new server instance
func New(opts ...Option) *Server {
	s := &Server{
		config: NewConfig(),
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.config.Handlers == nil {
		s.config.Handlers = make(map[string]http.HandlerFunc)
	}
	if _, ok := s.config.Handlers["/"]; !ok {
		s.config.Handlers["/"] = s.handleDefault
	}
	if s.config.RefreshInterval <= 0 {
		s.config.RefreshInterval = NewConfig().RefreshInterval
	}

	s.rateLimiter = rate.NewLimiter(s.config.RateLimit, s.config.RateLimitBurst)
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.setupRoutes(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	return s
}

// Handler returns the root handler with all routes registered.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// SetReady marks the server as ready to serve traffic
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Model returns the most recent DisplayModel, if any cycle has completed.
func (s *Server) Model() (dashboard.DisplayModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return dashboard.DisplayModel{}, false
	}
	return *s.model, true
}

// Refresh gathers and renders one cycle and replaces the cached model.
// A cycle interrupted by cancellation leaves the previous model in place.
func (s *Server) Refresh(ctx context.Context) error {
	if s.source == nil {
		return errors.New(errors.ErrCodeUnavailable, "no cluster source configured")
	}

	start := s.clock.Now()
	view := s.source.Gather(ctx, s.hosts)
	if err := ctx.Err(); err != nil {
		return err
	}
	model := dashboard.Render(view, s.clock.Now(), dashboard.WithStaleAfter(s.config.StaleAfter))

	s.mu.Lock()
	s.model = &model
	s.ready = true
	s.mu.Unlock()

	recordModel(model)
	refreshDuration.Observe(s.clock.Since(start).Seconds())

	slog.Debug("dashboard refreshed",
		slog.Int("hosts", model.Summary.Hosts),
		slog.Int("hostsDown", model.Summary.HostsDown),
		slog.Int("freeGPU", model.Summary.FreeGPU),
		slog.Int("totalGPU", model.Summary.TotalGPU))
	return nil
}

// refreshLoop is the only writer of the cached model.
func (s *Server) refreshLoop(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			slog.Error("dashboard refresh failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
		}
	}
}

// Start starts the HTTP server and blocks until ctx is canceled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.source == nil {
		s.SetReady(true)
	}

	slog.Info("starting server", slog.String("address", s.httpServer.Addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return errors.Wrap(errors.ErrCodeUnavailable, "server listen failed", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run serves HTTP and refreshes the dashboard until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("server config",
		slog.String("name", s.config.Name),
		slog.String("version", s.config.Version),
		slog.String("address", s.config.Address),
		slog.Int("hosts", len(s.hosts)),
		slog.Any("rateLimit", s.config.RateLimit),
		slog.Int("rateLimitBurst", s.config.RateLimitBurst),
		slog.Duration("refreshInterval", s.config.RefreshInterval),
		slog.Duration("staleAfter", s.config.StaleAfter),
		slog.Duration("shutdownTimeout", s.config.ShutdownTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)

	if s.source != nil {
		g.Go(func() error {
			return s.refreshLoop(gctx)
		})
	}
	g.Go(func() error {
		return s.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}

