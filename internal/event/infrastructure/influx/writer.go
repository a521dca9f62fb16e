// Package influx writes forwarded events as InfluxDB points.
package influx

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"ruuvari-collector/internal/event/application/forward"
)

const measurement = "ruuvi"

// Writer writes one point per event with a blocking write API.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
}

// NewWriter creates a client for url and binds it to org and bucket.
func NewWriter(url, token, org, bucket string) (*Writer, error) {
	if url == "" || org == "" || bucket == "" {
		return nil, errors.New("influx writer: url, org and bucket required")
	}
	client := influxdb2.NewClient(url, token)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		bucket:   bucket,
	}, nil
}

func (w *Writer) Name() string { return "influx" }

// Forward writes the batch.
func (w *Writer) Forward(ctx context.Context, batch forward.Batch) error {
	if w == nil || w.writeAPI == nil {
		return errors.New("influx writer: nil writer")
	}
	if len(batch.Events) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(batch.Events))
	for _, evt := range batch.Events {
		points = append(points, influxdb2.NewPoint(
			measurement,
			map[string]string{
				"beacon_address": evt.BeaconAddress,
				"adapter":        batch.Adapter,
			},
			map[string]interface{}{
				"air_pressure": evt.AirPressure,
				"humidity":     evt.Humidity,
				"temperature":  evt.Temperature,
				"rssi":         evt.RSSI,
			},
			evt.Timestamp,
		))
	}
	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx writer: write to %s: %w", w.bucket, err)
	}
	return nil
}

// Close releases the client.
func (w *Writer) Close() {
	if w != nil && w.client != nil {
		w.client.Close()
	}
}
