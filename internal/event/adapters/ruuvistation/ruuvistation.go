// Package ruuvistation converts payloads posted by the Ruuvi Station Android
// app (https://github.com/ruuvi/com.ruuvi.station) gateway feature.
package ruuvistation

import (
	"errors"
	"time"

	"ruuvari-collector/internal/event/adapters/decode"
	event "ruuvari-collector/internal/event/domain"
)

// Name identifies the adapter in dispatch configuration.
const Name = "ruuvistation"

var (
	errBothTagFields = errors.New("ruuvistation: payload carries both tag and tags")
	errIncompleteTag = errors.New("ruuvistation: incomplete tag")
)

// Payload is one Ruuvi Station POST body.
type Payload struct {
	DeviceID string
	EventID  string
	// Time is when the app sent the report; events use each tag's UpdateAt.
	Time string
	Tags TagSet
}

type wirePayload struct {
	DeviceID *string `json:"deviceId" validate:"required"`
	EventID  *string `json:"eventId" validate:"required"`
	Time     *string `json:"time" validate:"required"`
	Tag      *Tag    `json:"tag" validate:"omitempty"`
	Tags     []Tag   `json:"tags" validate:"omitempty,dive"`
}

// Tag is one RuuviTag as reported by the app.
type Tag struct {
	AccelX            *float64 `json:"accelX" validate:"required"`
	AccelY            *float64 `json:"accelY" validate:"required"`
	AccelZ            *float64 `json:"accelZ" validate:"required"`
	DefaultBackground *uint32  `json:"defaultBackground" validate:"required"`
	Favorite          *bool    `json:"favorite" validate:"required"`
	// relative humidity
	Humidity *float64 `json:"humidity" validate:"required"`
	ID       *string  `json:"id" validate:"required"`
	Name     *string  `json:"name"`
	// hPa
	Pressure    *float64 `json:"pressure" validate:"required"`
	RawDataBlob *Blob    `json:"rawDataBlob" validate:"required"`
	RSSI        *int     `json:"rssi" validate:"required"`
	// °C
	Temperature *float64 `json:"temperature" validate:"required"`
	UpdateAt    *string  `json:"updateAt" validate:"required"`
	Voltage     *float64 `json:"voltage" validate:"required"`
}

// Blob is the raw advertisement data.
type Blob struct {
	Blob []int32 `json:"blob" validate:"required"`
}

// TagKind tells which of the tag fields a payload populated.
type TagKind int

const (
	TagsNone TagKind = iota
	TagsSingle
	TagsMany
)

// TagSet holds either one tag, a list of tags, or nothing.
type TagSet struct {
	kind TagKind
	tags []Tag
}

// SingleTag wraps one tag.
func SingleTag(tag Tag) TagSet {
	return TagSet{kind: TagsSingle, tags: []Tag{tag}}
}

// ManyTags wraps a tag list. An empty list is TagsNone.
func ManyTags(tags []Tag) TagSet {
	if len(tags) == 0 {
		return TagSet{}
	}
	return TagSet{kind: TagsMany, tags: append([]Tag(nil), tags...)}
}

// Kind reports which variant is held.
func (s TagSet) Kind() TagKind { return s.kind }

// Tags returns a copy of the held tags in input order.
func (s TagSet) Tags() []Tag {
	if len(s.tags) == 0 {
		return nil
	}
	return append([]Tag(nil), s.tags...)
}

func newPayload(wire wirePayload) (*Payload, error) {
	payload := &Payload{DeviceID: deref(wire.DeviceID), EventID: deref(wire.EventID), Time: deref(wire.Time)}
	switch {
	case wire.Tag != nil && len(wire.Tags) > 0:
		return nil, &event.DecodeError{Err: errBothTagFields}
	case wire.Tag != nil:
		payload.Tags = SingleTag(*wire.Tag)
	default:
		payload.Tags = ManyTags(wire.Tags)
	}
	return payload, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Converter implements event.Converter for Ruuvi Station payloads.
type Converter struct {
	loc *time.Location
}

// Option configures the converter.
type Option func(*Converter)

// WithLocation sets the zone the phone clock is assumed to run in.
func WithLocation(loc *time.Location) Option {
	return func(c *Converter) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewConverter constructs a converter using the host local zone by default.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the adapter name.
func (c *Converter) Name() string { return Name }

// Decode parses raw as a Ruuvi Station payload.
func (c *Converter) Decode(raw []byte) (*Payload, error) {
	var wire wirePayload
	if err := decode.JSON(raw, &wire); err != nil {
		return nil, err
	}
	return newPayload(wire)
}

// DecodeAndConvert decodes raw and maps it to events.
func (c *Converter) DecodeAndConvert(raw []byte) ([]event.Event, error) {
	return decode.Run(raw, c.Decode, c.Convert)
}

// Convert maps a decoded payload to events. A single bad tag fails the batch.
func (c *Converter) Convert(payload *Payload) ([]event.Event, error) {
	if payload == nil || payload.Tags.Kind() == TagsNone {
		return nil, event.ErrEmptyEvent
	}
	tags := payload.Tags.Tags()
	events := make([]event.Event, 0, len(tags))
	for _, tag := range tags {
		evt, err := c.toEvent(tag)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (c *Converter) toEvent(tag Tag) (event.Event, error) {
	if tag.Pressure == nil || tag.Humidity == nil || tag.Temperature == nil || tag.RSSI == nil || tag.UpdateAt == nil || tag.ID == nil {
		return event.Event{}, &event.DecodeError{Err: errIncompleteTag}
	}
	ts, err := ParseTimestamp(*tag.UpdateAt, c.loc)
	if err != nil {
		return event.Event{}, err
	}
	return event.New(*tag.ID, *tag.Pressure, *tag.Humidity, *tag.Temperature, *tag.RSSI, ts), nil
}
