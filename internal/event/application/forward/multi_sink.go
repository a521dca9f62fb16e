package forward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ruuvari-collector/internal/observability/metrics"
)

// MultiSink forwards a batch to every sink in turn. One sink failing does not
// stop the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a MultiSink, skipping nil sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	kept := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &MultiSink{sinks: kept}
}

func (m *MultiSink) Name() string { return "multi" }

// Len reports the number of sinks.
func (m *MultiSink) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sinks)
}

// Forward sends batch to all sinks and joins their errors.
func (m *MultiSink) Forward(ctx context.Context, batch Batch) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, sink := range m.sinks {
		start := time.Now()
		err := sink.Forward(ctx, batch)
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
		metrics.ObserveForward(sink.Name(), result, time.Since(start))
	}
	return errors.Join(errs...)
}
