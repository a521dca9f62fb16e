// Package forward hands converted batches to downstream sinks.
package forward

import (
	"context"
	"time"

	"github.com/google/uuid"

	event "ruuvari-collector/internal/event/domain"
)

// Batch is the events produced from one accepted payload.
type Batch struct {
	ID         uuid.UUID     `json:"id"`
	Adapter    string        `json:"adapter"`
	ReceivedAt time.Time     `json:"received_at"`
	Events     []event.Event `json:"events"`
}

// NewBatch stamps a fresh batch id.
func NewBatch(adapter string, receivedAt time.Time, events []event.Event) Batch {
	return Batch{
		ID:         uuid.New(),
		Adapter:    adapter,
		ReceivedAt: receivedAt.UTC(),
		Events:     events,
	}
}

// Sink receives batches. Implementations must be safe for concurrent use.
type Sink interface {
	Name() string
	Forward(ctx context.Context, batch Batch) error
}
