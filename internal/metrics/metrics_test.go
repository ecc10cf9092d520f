package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	b := NewBenchmark()
	b.Sent.Inc()
	b.Sent.Inc()
	b.Success.Inc()
	b.Failure.Inc()
	b.ObserveLatency(10 * time.Millisecond)

	if got := testutil.ToFloat64(b.Sent); got != 2 {
		t.Fatalf("Sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(b.Success); got != 1 {
		t.Fatalf("Success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.Failure); got != 1 {
		t.Fatalf("Failure = %v, want 1", got)
	}
}
