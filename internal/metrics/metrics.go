// Package metrics exposes OpenTelemetry instruments for the interview flow.
// Instruments use the global meter provider; without an installed SDK they are no-ops.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dtp-id/talenta"

// Recorder holds the instruments. A nil *Recorder is valid and records nothing.
type Recorder struct {
	turns     metric.Int64Counter
	aiErrors  metric.Int64Counter
	aiLatency metric.Float64Histogram
}

// New creates a Recorder from the global meter provider.
func New() (*Recorder, error) {
	meter := otel.Meter(meterName)

	turns, err := meter.Int64Counter("dtp.interview.turns",
		metric.WithDescription("Persisted interview turns by kind"))
	if err != nil {
		return nil, err
	}
	aiErrors, err := meter.Int64Counter("dtp.ai.errors",
		metric.WithDescription("AI boundary failures by class"))
	if err != nil {
		return nil, err
	}
	aiLatency, err := meter.Float64Histogram("dtp.ai.duration",
		metric.WithDescription("AI round-trip latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Recorder{turns: turns, aiErrors: aiErrors, aiLatency: aiLatency}, nil
}

// Turn counts one persisted turn. kind is "seed", "probe" or "closure".
func (r *Recorder) Turn(ctx context.Context, kind string) {
	if r == nil {
		return
	}
	r.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// AIError counts one failed AI call.
func (r *Recorder) AIError(ctx context.Context, op, class string) {
	if r == nil {
		return
	}
	r.aiErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("class", class),
	))
}

// AILatency records the duration of one AI call.
func (r *Recorder) AILatency(ctx context.Context, op string, d time.Duration) {
	if r == nil {
		return
	}
	r.aiLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("op", op)))
}
