// Package metrics exposes Prometheus counters and a histogram for the
// benchmark run: requests sent, successes, failures, and round-trip
// latency. Serving them is optional and only wired in when the CLI is
// given a --metrics-addr.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Benchmark holds the counters a pipelined run updates as responses land.
type Benchmark struct {
	Sent    prometheus.Counter
	Success prometheus.Counter
	Failure prometheus.Counter
	Latency prometheus.Histogram

	registry *prometheus.Registry
}

// NewBenchmark creates a fresh set of counters registered to their own
// registry, so a benchmark run never collides with the default global
// registry's handler state.
func NewBenchmark() *Benchmark {
	reg := prometheus.NewRegistry()
	b := &Benchmark{
		Sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dubbo_ab_requests_sent_total",
			Help: "Total number of generic invocation requests sent.",
		}),
		Success: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dubbo_ab_responses_ok_total",
			Help: "Total number of responses with an OK status.",
		}),
		Failure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dubbo_ab_responses_failed_total",
			Help: "Total number of responses with a non-OK status.",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dubbo_ab_request_duration_seconds",
			Help:    "Round-trip latency of a single generic invocation request.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
	reg.MustRegister(b.Sent, b.Success, b.Failure, b.Latency)
	return b
}

// ObserveLatency records the round-trip time of one completed request.
func (b *Benchmark) ObserveLatency(d time.Duration) {
	b.Latency.Observe(d.Seconds())
}

// Serve runs an HTTP server exposing the registry at /metrics on addr and
// blocks until ctx is canceled (then shuts the server down) or the server
// fails.
func (b *Benchmark) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
