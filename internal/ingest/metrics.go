package ingest

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the telemetry-channel counters. A nil *Metrics is valid and
// records nothing, so the supervisor works without a meter in tests.
type Metrics struct {
	framesDecoded   metric.Int64Counter
	framesMalformed metric.Int64Counter
	authAuthorized  metric.Int64Counter
	authRejected    metric.Int64Counter
	readingsStored  metric.Int64Counter
	readingsDropped metric.Int64Counter
	storeFailures   metric.Int64Counter
}

// NewMetrics registers the channel counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	for _, c := range []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"telemetry.frames_decoded", &m.framesDecoded},
		{"telemetry.frames_malformed", &m.framesMalformed},
		{"telemetry.auth_authorized", &m.authAuthorized},
		{"telemetry.auth_rejected", &m.authRejected},
		{"telemetry.readings_stored", &m.readingsStored},
		{"telemetry.readings_dropped", &m.readingsDropped},
		{"telemetry.readings_store_failures", &m.storeFailures},
	} {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *Metrics) frameDecoded(ctx context.Context) {
	if m != nil {
		m.framesDecoded.Add(ctx, 1)
	}
}

func (m *Metrics) frameMalformed(ctx context.Context) {
	if m != nil {
		m.framesMalformed.Add(ctx, 1)
	}
}

func (m *Metrics) authorized(ctx context.Context) {
	if m != nil {
		m.authAuthorized.Add(ctx, 1)
	}
}

func (m *Metrics) rejected(ctx context.Context) {
	if m != nil {
		m.authRejected.Add(ctx, 1)
	}
}

func (m *Metrics) readingStored(ctx context.Context) {
	if m != nil {
		m.readingsStored.Add(ctx, 1)
	}
}

func (m *Metrics) readingDropped(ctx context.Context) {
	if m != nil {
		m.readingsDropped.Add(ctx, 1)
	}
}

func (m *Metrics) storeFailure(ctx context.Context) {
	if m != nil {
		m.storeFailures.Add(ctx, 1)
	}
}
