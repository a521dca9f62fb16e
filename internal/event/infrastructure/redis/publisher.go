// Package redis publishes forwarded batches on a Redis channel and keeps the
// latest reading per beacon in a hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ruuvari-collector/internal/event/application/forward"
	event "ruuvari-collector/internal/event/domain"
)

const latestKeyPrefix = "ruuvari:latest:"

// Publisher sends each batch as one JSON message.
type Publisher struct {
	client  goredis.Cmdable
	channel string
}

// NewPublisher binds client to channel.
func NewPublisher(client goredis.Cmdable, channel string) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("redis publisher: nil client")
	}
	if channel == "" {
		return nil, errors.New("redis publisher: channel required")
	}
	return &Publisher{client: client, channel: channel}, nil
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis publisher: ping %s: %w", addr, err)
	}
	return client, nil
}

func (p *Publisher) Name() string { return "redis" }

// Forward publishes batch and updates the per-beacon latest hashes in one
// transaction.
func (p *Publisher) Forward(ctx context.Context, batch forward.Batch) error {
	if p == nil || p.client == nil {
		return errors.New("redis publisher: nil publisher")
	}
	if len(batch.Events) == 0 {
		return nil
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("redis publisher: encode: %w", err)
	}
	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, payload)
		for _, evt := range batch.Events {
			pipe.HSet(ctx, LatestKey(evt.BeaconAddress), latestFields(batch.Adapter, evt))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publisher: publish to %s: %w", p.channel, err)
	}
	return nil
}

// LatestKey is the hash holding a beacon's most recent reading.
func LatestKey(beaconAddress string) string {
	return latestKeyPrefix + beaconAddress
}

func latestFields(adapter string, evt event.Event) map[string]interface{} {
	return map[string]interface{}{
		"adapter":      adapter,
		"air_pressure": evt.AirPressure,
		"humidity":     evt.Humidity,
		"temperature":  evt.Temperature,
		"rssi":         evt.RSSI,
		"timestamp":    evt.Timestamp.Format(time.RFC3339),
	}
}
