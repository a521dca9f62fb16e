// Package dispatch picks the adapter that understands a payload.
package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ruuvari-collector/internal/event/adapters/beaconscanner"
	"ruuvari-collector/internal/event/adapters/ruuvistation"
	event "ruuvari-collector/internal/event/domain"
)

var (
	ErrNoConverters     = errors.New("dispatch: no converters")
	ErrUnknownAdapter   = errors.New("dispatch: unknown adapter")
	ErrDuplicateAdapter = errors.New("dispatch: duplicate adapter")
)

// DefaultOrder tries Ruuvi Station first. A Ruuvi payload never decodes as a
// Beacon Scanner one, so it never reaches the second adapter.
var DefaultOrder = []string{ruuvistation.Name, beaconscanner.Name}

// Result is the first successful conversion.
type Result struct {
	Adapter string
	Events  []event.Event
}

// Failure is one adapter's rejection of a payload.
type Failure struct {
	Adapter string
	Err     error
}

// NoMatchError is returned when every adapter rejected the payload. It unwraps
// to each adapter's error so errors.Is works on the taxonomy sentinels.
type NoMatchError struct {
	Failures []Failure
}

func (e *NoMatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Adapter, f.Err))
	}
	return "dispatch: no adapter accepted payload: " + strings.Join(parts, "; ")
}

func (e *NoMatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Dispatcher holds converters in a fixed order. It is immutable after New and
// safe for concurrent use.
type Dispatcher struct {
	converters []event.Converter
}

// New orders converters by name. An empty order means DefaultOrder.
func New(order []string, converters ...event.Converter) (*Dispatcher, error) {
	if len(converters) == 0 {
		return nil, ErrNoConverters
	}
	byName := make(map[string]event.Converter, len(converters))
	for _, c := range converters {
		if c == nil {
			return nil, errors.New("dispatch: nil converter")
		}
		if _, ok := byName[c.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, c.Name())
		}
		byName[c.Name()] = c
	}
	if len(order) == 0 {
		order = DefaultOrder
	}

	seen := make(map[string]struct{}, len(order))
	ordered := make([]event.Converter, 0, len(order))
	for _, name := range order {
		name = strings.TrimSpace(name)
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, name)
		}
		seen[name] = struct{}{}
		ordered = append(ordered, c)
	}
	return &Dispatcher{converters: ordered}, nil
}

// NewDefault builds the standard dispatcher with both vendor adapters. loc is
// the zone Ruuvi Station wall-clock strings are read in.
func NewDefault(order []string, loc *time.Location) (*Dispatcher, error) {
	return New(order,
		ruuvistation.NewConverter(ruuvistation.WithLocation(loc)),
		beaconscanner.NewConverter(),
	)
}

// Order returns the adapter names in the order they are tried.
func (d *Dispatcher) Order() []string {
	names := make([]string, 0, len(d.converters))
	for _, c := range d.converters {
		names = append(names, c.Name())
	}
	return names
}

// Dispatch returns the first adapter's successful conversion of raw.
func (d *Dispatcher) Dispatch(raw []byte) (Result, error) {
	failures := make([]Failure, 0, len(d.converters))
	for _, c := range d.converters {
		events, err := c.DecodeAndConvert(raw)
		if err == nil {
			return Result{Adapter: c.Name(), Events: events}, nil
		}
		failures = append(failures, Failure{Adapter: c.Name(), Err: err})
	}
	return Result{}, &NoMatchError{Failures: failures}
}
