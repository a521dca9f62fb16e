// Package ingest exposes the vendor gateway endpoint.
package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ruuvari-collector/internal/event/application/dispatch"
	"ruuvari-collector/internal/event/application/forward"
	event "ruuvari-collector/internal/event/domain"
	"ruuvari-collector/internal/observability/metrics"
)

const (
	defaultMaxBodyBytes   = 1 << 20
	defaultForwardTimeout = 5 * time.Second

	ackBody = "ok"
)

// Dispatcher converts a raw payload with the first adapter that accepts it.
type Dispatcher interface {
	Dispatch(raw []byte) (dispatch.Result, error)
}

// IngestHandler accepts vendor app POSTs. It always acknowledges with 200 and
// a fixed body so the apps never retry or surface errors to the user.
type IngestHandler struct {
	dispatcher     Dispatcher
	sink           forward.Sink
	logger         zerolog.Logger
	maxBodyBytes   int64
	forwardTimeout time.Duration
	now            func() time.Time
}

// Option configures the handler.
type Option func(*IngestHandler)

// WithMaxBodyBytes caps the request body. Larger bodies are dropped.
func WithMaxBodyBytes(n int64) Option {
	return func(h *IngestHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithForwardTimeout bounds the time spent handing a batch to the sink.
func WithForwardTimeout(d time.Duration) Option {
	return func(h *IngestHandler) {
		if d > 0 {
			h.forwardTimeout = d
		}
	}
}

// WithClock overrides the receive time source.
func WithClock(now func() time.Time) Option {
	return func(h *IngestHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewIngestHandler constructs an ingest handler. sink may be nil, in which
// case converted batches are only counted.
func NewIngestHandler(dispatcher Dispatcher, sink forward.Sink, logger zerolog.Logger, opts ...Option) (*IngestHandler, error) {
	if dispatcher == nil {
		return nil, errors.New("ingest: nil dispatcher")
	}
	h := &IngestHandler{
		dispatcher:     dispatcher,
		sink:           sink,
		logger:         logger,
		maxBodyBytes:   defaultMaxBodyBytes,
		forwardTimeout: defaultForwardTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP converts the payload and forwards the resulting batch.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := h.now()
	result := h.ingest(w, r, start)
	metrics.ObserveIngest(result, h.now().Sub(start))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ackBody)
}

func (h *IngestHandler) ingest(w http.ResponseWriter, r *http.Request, receivedAt time.Time) string {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn().Int64("limit", tooLarge.Limit).Msg("ingest: body too large, dropped")
		} else {
			h.logger.Warn().Err(err).Msg("ingest: read body error, dropped")
		}
		metrics.IncConversionFailure("none", string(event.KindDecodeError))
		return metrics.IngestResultDropped
	}

	res, err := h.dispatcher.Dispatch(body)
	if err != nil {
		h.recordFailure(err, len(body))
		return metrics.IngestResultDropped
	}

	metrics.ObserveConversion(res.Adapter, len(res.Events))
	h.logger.Debug().
		Str("adapter", res.Adapter).
		Int("events", len(res.Events)).
		Int("bytes", len(body)).
		Msg("ingest: payload converted")

	if h.sink != nil {
		batch := forward.NewBatch(res.Adapter, receivedAt, res.Events)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.forwardTimeout)
		defer cancel()
		if err := h.sink.Forward(ctx, batch); err != nil {
			h.logger.Error().Err(err).Str("batch_id", batch.ID.String()).Msg("ingest: forward failed")
		}
	}
	return metrics.IngestResultSuccess
}

func (h *IngestHandler) recordFailure(err error, size int) {
	kinds := zerolog.Dict()
	var noMatch *dispatch.NoMatchError
	if errors.As(err, &noMatch) {
		for _, f := range noMatch.Failures {
			kind := string(event.KindOf(f.Err))
			metrics.IncConversionFailure(f.Adapter, kind)
			kinds.Str(f.Adapter, kind)
		}
	} else {
		kind := string(event.KindOf(err))
		metrics.IncConversionFailure("none", kind)
		kinds.Str("none", kind)
	}
	h.logger.Warn().
		Err(err).
		Dict("kinds", kinds).
		Int("bytes", size).
		Msg("ingest: payload not converted, dropped")
}
