package forward

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// LoggingSink logs each event of a batch.
type LoggingSink struct {
	logger zerolog.Logger
}

// NewLoggingSink constructs a logging sink.
func NewLoggingSink(logger zerolog.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

func (s *LoggingSink) Name() string { return "log" }

// Forward logs the batch.
func (s *LoggingSink) Forward(_ context.Context, batch Batch) error {
	if s == nil {
		return errors.New("forward: nil logging sink")
	}
	for _, evt := range batch.Events {
		s.logger.Info().
			Str("batch_id", batch.ID.String()).
			Str("adapter", batch.Adapter).
			Str("beacon_address", evt.BeaconAddress).
			Float64("air_pressure", evt.AirPressure).
			Float64("humidity", evt.Humidity).
			Float64("temperature", evt.Temperature).
			Int("rssi", evt.RSSI).
			Time("timestamp", evt.Timestamp).
			Msg("event")
	}
	return nil
}
