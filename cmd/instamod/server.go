package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isstabb/InstaMod/automod/engine"
)

// Server drives the poll loop: one ScanCycle per engine per period. A cycle
// that overruns the period starts the next one immediately.
type Server struct {
	logger      *slog.Logger
	engines     []*engine.Engine
	cyclePeriod time.Duration
}

func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting poll loop", "engines", len(s.engines), "period", s.cyclePeriod)
	for {
		start := time.Now()
		for _, eng := range s.engines {
			if ctx.Err() != nil {
				return nil
			}
			s.runCycle(ctx, eng)
		}

		sleep := s.cyclePeriod - time.Since(start)
		if sleep <= 0 {
			s.logger.Warn("cycle overran its period", "elapsed", time.Since(start))
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
}

// runCycle isolates one community's cycle: an error or panic is logged and the
// next cycle retried, never terminating the daemon.
func (s *Server) runCycle(ctx context.Context, eng *engine.Engine) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during scan cycle", "community", eng.Community(), "panic", r)
		}
	}()
	if err := eng.ScanCycle(ctx); err != nil {
		s.logger.Error("scan cycle failed", "community", eng.Community(), "err", err)
	}
}

func (s *Server) RunMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, mux)
}
