// Package observe records kotoba's OpenTelemetry metrics and exposes them to
// Prometheus.
//
// Tests should build a Metrics with NewMetrics over their own
// [metric.MeterProvider] rather than the global one.
package observe

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/conorfennell/kotoba/internal/srs"
)

const meterName = "github.com/conorfennell/kotoba"

// Metrics holds the instruments. It implements review.Recorder.
type Metrics struct {
	// Reviews counts ratings. Attributes: deck, quality, outcome (saved|unsaved).
	Reviews metric.Int64Counter

	// StoreErrors counts failed store calls. Attributes: deck, op.
	StoreErrors metric.Int64Counter

	// Sessions counts loaded review sessions. Attribute: deck.
	Sessions metric.Int64Counter

	// DueItems records how many items were due when a session loaded.
	DueItems metric.Int64Histogram

	// HTTPRequestDuration tracks request latency by method and route.
	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Reviews, err = m.Int64Counter("kotoba.reviews",
		metric.WithDescription("Ratings applied, by deck, quality and outcome."),
	); err != nil {
		return nil, err
	}
	if met.StoreErrors, err = m.Int64Counter("kotoba.store.errors",
		metric.WithDescription("Failed store reads and writes by deck and operation."),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("kotoba.sessions",
		metric.WithDescription("Review sessions loaded by deck."),
	); err != nil {
		return nil, err
	}
	if met.DueItems, err = m.Int64Histogram("kotoba.session.due_items",
		metric.WithDescription("Items due when a session loaded."),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250, 500),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("kotoba.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) SessionStarted(ctx context.Context, deck string, due int) {
	deckAttr := metric.WithAttributes(attribute.String("deck", deck))
	m.Sessions.Add(ctx, 1, deckAttr)
	m.DueItems.Record(ctx, int64(due), deckAttr)
}

func (m *Metrics) Reviewed(ctx context.Context, deck string, q srs.Quality, saved bool) {
	outcome := "saved"
	if !saved {
		outcome = "unsaved"
	}
	m.Reviews.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("deck", deck),
			attribute.String("quality", strconv.Itoa(int(q))),
			attribute.String("outcome", outcome),
		),
	)
}

func (m *Metrics) StoreError(ctx context.Context, deck, op string) {
	m.StoreErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("deck", deck),
			attribute.String("op", op),
		),
	)
}
