package event

import (
	"errors"
	"fmt"
)

// Kind classifies conversion failures.
type Kind string

const (
	KindEmptyEvent  Kind = "empty_event"
	KindParseError  Kind = "parse_error"
	KindDecodeError Kind = "decode_error"
	KindUnknown     Kind = "unknown"
)

var (
	// ErrEmptyEvent is returned when a payload decoded but yielded no events.
	ErrEmptyEvent = errors.New("event: empty event")
	// ErrParse matches any *ParseError.
	ErrParse = errors.New("event: unrecognized timestamp")
	// ErrDecode matches any *DecodeError.
	ErrDecode = errors.New("event: decode failed")
)

// ParseError reports a timestamp string that matched none of the known layouts.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("event: unrecognized timestamp %q", e.Value)
}

// Is reports ErrParse as a match.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// DecodeError wraps the decoder or validator diagnostic for input that is not
// valid JSON or does not have the vendor's shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return ErrDecode.Error()
	}
	return "event: decode failed: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports ErrDecode as a match.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// KindOf classifies err. When a joined error carries several kinds, decode
// wins over parse, and parse over empty.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return KindDecodeError
	case errors.Is(err, ErrParse):
		return KindParseError
	case errors.Is(err, ErrEmptyEvent):
		return KindEmptyEvent
	default:
		return KindUnknown
	}
}
