// Package metrics defines the Prometheus metrics EventTrail exports and the
// HTTP listener that serves them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "eventtrail"

var (
	// evaluations counts pattern evaluations.
	// Labels: outcome (matched, unmatched)
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "evaluations_total",
		Help:      "Pattern evaluations by outcome",
	}, []string{"outcome"})

	// historyLength tracks the size of evaluated histories.
	historyLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "history_events",
		Help:      "Events per evaluated history",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	})

	// compileErrors counts definitions rejected at compile time.
	compileErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "compile_errors_total",
		Help:      "Pattern definitions rejected by the compiler",
	})

	// cachedPatterns reports the engine cache size.
	cachedPatterns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "cached_patterns",
		Help:      "Compiled patterns held in the engine cache",
	})

	// rpcDuration measures gRPC handler latency.
	// Labels: method (full gRPC method), code (gRPC status code)
	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "request_duration_seconds",
		Help:      "gRPC request latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "code"})
)

// RecordEvaluation records one evaluated history.
func RecordEvaluation(matched bool, events int) {
	outcome := "unmatched"
	if matched {
		outcome = "matched"
	}
	evaluations.WithLabelValues(outcome).Inc()
	historyLength.Observe(float64(events))
}

// RecordCompileError records a rejected definition.
func RecordCompileError() {
	compileErrors.Inc()
}

// SetCachedPatterns reports the engine cache size.
func SetCachedPatterns(n int) {
	cachedPatterns.Set(float64(n))
}

// UnaryInterceptor records latency and status code of every unary RPC.
func UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		rpcDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server serves /metrics on its own port.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server bound to addr on Start.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.srv.Addr, err)
	}
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
