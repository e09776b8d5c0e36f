package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Observe(ctx, "villa.create", "success", 3*time.Millisecond)
	r.Observe(ctx, "villa.create", "success", 5*time.Millisecond)
	r.Observe(ctx, "villa.create", "invalid_input", time.Millisecond)
	r.Observe(ctx, "", "success", time.Millisecond)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("villa.create", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("villa.create", "invalid_input")); got != 1 {
		t.Errorf("invalid_input count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.operations); n != 2 {
		t.Errorf("expected 2 operation series, got %d", n)
	}
	if n := testutil.CollectAndCount(r.durations); n != 1 {
		t.Errorf("expected 1 duration series, got %d", n)
	}
}

func TestRequest(t *testing.T) {
	r := NewRecorder()

	r.Request(http.MethodGet, "GET /api/villa/{id}", http.StatusOK)
	r.Request(http.MethodGet, "GET /api/villa/{id}", http.StatusOK)
	r.Request(http.MethodGet, "", http.StatusNotFound)

	if got := testutil.ToFloat64(r.requests.WithLabelValues("GET", "GET /api/villa/{id}", "200")); got != 2 {
		t.Errorf("route count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}

func TestRequestBoundsMethodLabel(t *testing.T) {
	r := NewRecorder()

	r.Request("BREW", "", http.StatusMethodNotAllowed)
	r.Request("X-CUSTOM-1", "", http.StatusMethodNotAllowed)
	r.Request(http.MethodPatch, "PATCH /api/villa/{id}", http.StatusNoContent)

	if got := testutil.ToFloat64(r.requests.WithLabelValues("other", "unmatched", "405")); got != 2 {
		t.Errorf("other count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.requests.WithLabelValues("PATCH", "PATCH /api/villa/{id}", "204")); got != 1 {
		t.Errorf("PATCH count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.requests); n != 2 {
		t.Errorf("series = %d, want 2", n)
	}
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.Observe(context.Background(), "villa.list", "success", time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`magicvilla_operations_total{operation="villa.list",outcome="success"} 1`,
		"magicvilla_operation_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
