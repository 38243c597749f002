package observe

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

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

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordJob(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJob(ctx, OutcomeEmbedded, 200*time.Millisecond, 2080)
	m.RecordJob(ctx, OutcomeEmbedded, 300*time.Millisecond, 2080)
	m.RecordJob(ctx, OutcomeFailed, time.Second, 2080)

	rm := collect(t, reader)

	jobs := findMetric(rm, "soundcipher.jobs.processed")
	if jobs == nil {
		t.Fatal("jobs counter not found")
	}
	sum, ok := jobs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("jobs data is %T", jobs.Data)
	}
	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		byOutcome[v.AsString()] = dp.Value
	}
	if byOutcome[OutcomeEmbedded] != 2 || byOutcome[OutcomeFailed] != 1 {
		t.Errorf("jobs by outcome = %v", byOutcome)
	}

	duration := findMetric(rm, "soundcipher.embed.duration")
	if duration == nil {
		t.Fatal("duration histogram not found")
	}
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("duration data is %T", duration.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("duration histogram recorded %+v, want 2 observations", hist.DataPoints)
	}
}

func TestRecordSweep(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordSweep(context.Background(), 3)
	m.RecordSweep(context.Background(), 0)

	swept := findMetric(collect(t, reader), "soundcipher.retention.swept")
	if swept == nil {
		t.Fatal("swept counter not found")
	}
	sum := swept.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Errorf("swept = %+v, want 3", sum.DataPoints)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordJob(context.Background(), OutcomeEmbedded, time.Second, 1)
	m.RecordSweep(context.Background(), 1)
}
