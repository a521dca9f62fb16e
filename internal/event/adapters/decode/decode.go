// Package decode holds the JSON decoding shared by the vendor adapters.
package decode

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	event "ruuvari-collector/internal/event/domain"
)

var validate = validator.New()

// errEmptyInput is wrapped in a DecodeError for zero-length bodies.
var errEmptyInput = errors.New("decode: empty input")

// JSON unmarshals raw into out and checks its `validate` tags. Unknown fields
// are ignored. Any failure is returned as *event.DecodeError.
func JSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return &event.DecodeError{Err: errEmptyInput}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &event.DecodeError{Err: err}
	}
	if err := validate.Struct(out); err != nil {
		return &event.DecodeError{Err: err}
	}
	return nil
}

// Run decodes raw with decodeFn and maps the result with convert.
func Run[P any](raw []byte, decodeFn func([]byte) (P, error), convert func(P) ([]event.Event, error)) ([]event.Event, error) {
	payload, err := decodeFn(raw)
	if err != nil {
		return nil, err
	}
	return convert(payload)
}
