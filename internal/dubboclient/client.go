// Package dubboclient drives generic-invocation requests against a Dubbo
// server: a single blocking call for one-shot invocation, and a pipelined
// benchmark mode that keeps a bounded window of requests in flight.
package dubboclient

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/goghcrow/dubbo-ab/internal/dubbo"
	"github.com/goghcrow/dubbo-ab/internal/log"
	"github.com/goghcrow/dubbo-ab/internal/metrics"
)

// Target names the server and call this client issues.
type Target struct {
	Host    string
	Port    string
	Service string
	Method  string
	Args    string // JSON-encoded argument array or object
	Attach  string // reserved; attachments are not implemented (Non-goal)
	Codec   dubbo.ParamCodec
}

func (t Target) addr() string { return net.JoinHostPort(t.Host, t.Port) }

// BenchConfig configures a pipelined benchmark run.
type BenchConfig struct {
	Target
	Timeout  time.Duration
	Requests int // total requests to send before stopping
	Pipeline int // max requests in flight at once
	Verbose  bool
	Metrics  *metrics.Benchmark // optional; nil disables metric recording
}

// Summary reports the outcome of a finished benchmark run, matching the
// fields the original client prints at exit.
type Summary struct {
	Elapsed time.Duration
	Sent    int
	Success int
	Failure int
}

// QPS returns completed requests per second of wall-clock time.
func (s Summary) QPS() float64 {
	secs := s.Elapsed.Seconds()
	if secs < 0.001 {
		return 0
	}
	return float64(s.Sent) / secs
}

func dialTarget(ctx context.Context, t Target, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr())
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", t.addr())
	}
	return conn, nil
}

func logVerboseRequest(verbose bool, reqID int64) {
	if verbose {
		log.Debugf("<req>[seq=%d]", reqID)
	}
}
