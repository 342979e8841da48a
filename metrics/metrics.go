// Package metrics exposes an optional Prometheus scrape endpoint and a
// liveness probe for long-running batch invocations, supervised the same
// way a request-serving goroutine would be: behind an errgroup bound to
// the run's context, so a cancellation tears the listener down instead
// of leaking it.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sonospy/movetags/log"
)

// Recorder is the set of counters a batch run updates as it progresses.
var Recorder = struct {
	ScansProcessed  prometheus.Counter
	TracksProcessed prometheus.Counter
	WVProcessed     prometheus.Counter
	BatchErrors     prometheus.Counter
}{
	ScansProcessed: promauto.NewCounter(prometheus.CounterOpts{
		Name: "movetags_scans_processed_total",
		Help: "Scan batches folded into the target database.",
	}),
	TracksProcessed: promauto.NewCounter(prometheus.CounterOpts{
		Name: "movetags_tracks_processed_total",
		Help: "Plain-track pairs folded into the target database.",
	}),
	WVProcessed: promauto.NewCounter(prometheus.CounterOpts{
		Name: "movetags_workvirtual_processed_total",
		Help: "Work/virtual membership pairs folded into the target database.",
	}),
	BatchErrors: promauto.NewCounter(prometheus.CounterOpts{
		Name: "movetags_batch_errors_total",
		Help: "Scan batches that finished with at least one storage error.",
	}),
}

// Server is the optional HTTP endpoint. A nil *Server is valid and Serve
// on it is a no-op, so callers can construct one unconditionally and
// only skip listening when no --metrics-addr was given.
type Server struct {
	addr string
	srv  *http.Server
}

func New(addr string) *Server {
	if addr == "" {
		return nil
	}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return &Server{addr: addr, srv: &http.Server{Addr: addr, Handler: r}}
}

// Serve runs the listener until ctx is cancelled, then shuts it down
// with a bounded grace period. A nil receiver blocks until ctx is done
// and returns nil, so callers can group.Go(s.Serve) unconditionally.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		<-ctx.Done()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
