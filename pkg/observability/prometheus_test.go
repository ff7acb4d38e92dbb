package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooks(reg)
	ctx := context.Background()

	h.OnRunStart(ctx, "run", 2)
	h.OnRunComplete(ctx, "run", RunStats{Iterations: 12, Duration: time.Second, Termination: "limit"}, nil)
	h.OnRunComplete(ctx, "run", RunStats{Termination: "error"}, errors.New("boom"))
	h.OnStateAccepted(ctx, 0.4)
	h.OnStateAccepted(ctx, -0.2)
	h.OnStateDiscarded(ctx, "score_filter", "not_acceptable")
	h.OnCacheHit(ctx, "versions")
	h.OnCacheMiss(ctx, "versions")
	h.OnCacheSet(ctx, "versions", 128)
	h.OnResponse(ctx, "GET", "pypi.org", "/pypi/flask/json", 200, 50*time.Millisecond)
	h.OnError(ctx, "GET", "pypi.org", "/pypi/flask/json", errors.New("reset"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"runs ok", h.runs.WithLabelValues("limit", "ok"), 1},
		{"runs error", h.runs.WithLabelValues("error", "error"), 1},
		{"accepted", h.accepted, 2},
		{"discarded", h.discarded.WithLabelValues("score_filter", "not_acceptable"), 1},
		{"cache hit", h.cacheOps.WithLabelValues("versions", "hit"), 1},
		{"cache miss", h.cacheOps.WithLabelValues("versions", "miss"), 1},
		{"cache bytes", h.cacheBytes.WithLabelValues("versions"), 128},
		{"http 200", h.httpRequests.WithLabelValues("pypi.org", "200"), 1},
		{"http errors", h.httpErrors.WithLabelValues("pypi.org"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrometheusHooksImplementAll(t *testing.T) {
	var h any = NewPrometheusHooks(prometheus.NewRegistry())
	if _, ok := h.(ResolverHooks); !ok {
		t.Error("PrometheusHooks should implement ResolverHooks")
	}
	if _, ok := h.(CacheHooks); !ok {
		t.Error("PrometheusHooks should implement CacheHooks")
	}
	if _, ok := h.(HTTPHooks); !ok {
		t.Error("PrometheusHooks should implement HTTPHooks")
	}
}
