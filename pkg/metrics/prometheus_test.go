package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New()
	if New() != r {
		t.Fatalf("recorder should be process-wide")
	}

	before := testutil.ToFloat64(r.commandsTotal.WithLabelValues("info", "ok"))
	r.RecordCommand("info", "ok", 150*time.Millisecond)
	if got := testutil.ToFloat64(r.commandsTotal.WithLabelValues("info", "ok")); got != before+1 {
		t.Fatalf("commands_total = %v, want %v", got, before+1)
	}

	r.RecordProviderError("yahoo")
	if got := testutil.ToFloat64(r.providerErrors.WithLabelValues("yahoo")); got < 1 {
		t.Fatalf("provider_errors_total = %v", got)
	}

	r.SetQueueDepth(7)
	if got := testutil.ToFloat64(r.queueDepth); got != 7 {
		t.Fatalf("queue depth = %v", got)
	}
}
