package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/conorfennell/kotoba/internal/review"
	"github.com/conorfennell/kotoba/internal/srs"
)

var _ review.Recorder = (*Metrics)(nil)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("metric %q is not an int64 sum", name)
				}
				return sum
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Sum[int64]{}
}

func valueWhere(sum metricdata.Sum[int64], key, value string) (int64, bool) {
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value, true
		}
	}
	return 0, false
}

func TestReviewed(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Reviewed(ctx, "cards", srs.Good, true)
	m.Reviewed(ctx, "cards", srs.Good, true)
	m.Reviewed(ctx, "cards", srs.Fail, false)

	sum := findSum(t, collect(t, reader), "kotoba.reviews")
	if got, ok := valueWhere(sum, "outcome", "saved"); !ok || got != 2 {
		t.Errorf("Expected 2 saved reviews, but got %d (found %v)", got, ok)
	}
	if got, ok := valueWhere(sum, "quality", "0"); !ok || got != 1 {
		t.Errorf("Expected 1 review with quality 0, but got %d (found %v)", got, ok)
	}
}

func TestSessionStartedAndStoreError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SessionStarted(ctx, "words", 7)
	m.StoreError(ctx, "words", "fetch")
	m.StoreError(ctx, "words", "update")
	m.StoreError(ctx, "words", "update")

	rm := collect(t, reader)
	if got, ok := valueWhere(findSum(t, rm, "kotoba.sessions"), "deck", "words"); !ok || got != 1 {
		t.Errorf("Expected 1 session, but got %d", got)
	}
	if got, ok := valueWhere(findSum(t, rm, "kotoba.store.errors"), "op", "update"); !ok || got != 2 {
		t.Errorf("Expected 2 update errors, but got %d", got)
	}
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	m, reader := newTestMetrics(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/words/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Middleware(m, nil)(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/words/abc", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("Expected status %d, but got %d", http.StatusTeapot, rec.Code)
	}

	rm := collect(t, reader)
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "kotoba.http.request.duration" {
				continue
			}
			hist := met.Data.(metricdata.Histogram[float64])
			if len(hist.DataPoints) != 1 {
				t.Fatalf("Expected 1 data point, but got %d", len(hist.DataPoints))
			}
			route, _ := hist.DataPoints[0].Attributes.Value("route")
			if route.AsString() != "GET /api/words/{id}" {
				t.Errorf("Expected route pattern, but got %q", route.AsString())
			}
			return
		}
	}
	t.Error("kotoba.http.request.duration not found")
}

func TestInitProviderServesPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, shutdown, err := InitProvider(context.Background(), ProviderConfig{Registerer: reg})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	m.Reviewed(context.Background(), "cards", srs.Easy, true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	if !strings.Contains(strings.Join(names, ","), "kotoba_reviews") {
		t.Errorf("Expected a kotoba_reviews family, but got %v", names)
	}
}
