package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "speechcheck/recognition"

// Tracer returns the tracer used around recognition submissions
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// RecognitionMetrics records submission outcomes and provider latency
type RecognitionMetrics struct {
	submissions     metric.Int64Counter
	providerLatency metric.Float64Histogram
}

// NewRecognitionMetrics creates instruments on the global meter provider.
// Instrument errors fall back to no-op instruments.
func NewRecognitionMetrics() *RecognitionMetrics {
	meter := otel.Meter(instrumentationName)
	m := &RecognitionMetrics{}

	var err error
	m.submissions, err = meter.Int64Counter("speechcheck_submissions",
		metric.WithDescription("Recognition submissions by engine and outcome"))
	if err != nil {
		otel.Handle(err)
	}
	m.providerLatency, err = meter.Float64Histogram("speechcheck_provider_latency",
		metric.WithDescription("Transcription provider round trip time"),
		metric.WithUnit("ms"))
	if err != nil {
		otel.Handle(err)
	}
	return m
}

// RecordSubmission counts one submission. outcome is correct, incorrect or
// an error kind.
func (m *RecognitionMetrics) RecordSubmission(ctx context.Context, engine, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("outcome", outcome),
	))
}

// RecordProviderLatency records one provider call duration
func (m *RecognitionMetrics) RecordProviderLatency(ctx context.Context, d time.Duration, failed bool) {
	if m == nil || m.providerLatency == nil {
		return
	}
	m.providerLatency.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(
		attribute.Bool("failed", failed),
	))
}
