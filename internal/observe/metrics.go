// Package observe holds the worker's OpenTelemetry instruments.
//
// Metrics are exported in Prometheus format by InitProvider. Tests should
// build their own Metrics with NewMetrics and a ManualReader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/glizzus/sound-cipher"

// Job outcomes recorded on JobsProcessed.
const (
	OutcomeEmbedded = "embedded"
	OutcomeFailed   = "failed"
	OutcomeRetry    = "retry"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	// JobsProcessed counts handled embed jobs by attribute "outcome".
	JobsProcessed metric.Int64Counter

	// EmbedDuration is the time from job receipt to a stored stego object.
	EmbedDuration metric.Float64Histogram

	// PayloadBits is the frame length of embedded jobs.
	PayloadBits metric.Int64Histogram

	// ArtefactsSwept counts artefacts removed by the retention sweep.
	ArtefactsSwept metric.Int64Counter
}

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.JobsProcessed, err = m.Int64Counter("soundcipher.jobs.processed",
		metric.WithDescription("Embed jobs handled by the worker."),
	); err != nil {
		return nil, err
	}
	if met.EmbedDuration, err = m.Float64Histogram("soundcipher.embed.duration",
		metric.WithDescription("Time to embed one job, including storage round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PayloadBits, err = m.Int64Histogram("soundcipher.embed.frame_bits",
		metric.WithDescription("Frame length of embedded payloads."),
		metric.WithUnit("bit"),
	); err != nil {
		return nil, err
	}
	if met.ArtefactsSwept, err = m.Int64Counter("soundcipher.retention.swept",
		metric.WithDescription("Artefacts removed by the retention sweep."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// NewGlobalMetrics builds Metrics on the global MeterProvider.
func NewGlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

func (m *Metrics) RecordJob(ctx context.Context, outcome string, elapsed time.Duration, frameBits int) {
	if m == nil {
		return
	}
	m.JobsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == OutcomeEmbedded {
		m.EmbedDuration.Record(ctx, elapsed.Seconds())
		m.PayloadBits.Record(ctx, int64(frameBits))
	}
}

func (m *Metrics) RecordSweep(ctx context.Context, removed int) {
	if m == nil {
		return
	}
	m.ArtefactsSwept.Add(ctx, int64(removed))
}
