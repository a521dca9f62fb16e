// Package beaconscanner converts payloads posted by the Beacon Scanner
// Android app (https://github.com/Bridouille/android-beacon-scanner).
package beaconscanner

import (
	"encoding/json"
	"errors"
	"time"

	"ruuvari-collector/internal/event/adapters/decode"
	event "ruuvari-collector/internal/event/domain"
)

// Name identifies the adapter in dispatch configuration.
const Name = "beaconscanner"

// Payload is one Beacon Scanner POST body.
type Payload struct {
	Beacons []Beacon `json:"beacons" validate:"required,dive"`
	Reader  *string  `json:"reader" validate:"required"`
}

// Beacon is a single beacon reading.
type Beacon struct {
	BeaconAddress    *string         `json:"beaconAddress" validate:"required"`
	BeaconType       *string         `json:"beaconType" validate:"required"`
	Distance         *float64        `json:"distance" validate:"required"`
	EddystoneURLData json.RawMessage `json:"eddystoneUrlData" validate:"required"`
	Hashcode         *int64          `json:"hashcode" validate:"required,min=0"`
	IsBlocked        *bool           `json:"isBlocked" validate:"required"`
	LastMinuteSeen   *int64          `json:"lastMinuteSeen" validate:"required,min=0"`
	// LastSeen is milliseconds since the epoch as reported by the phone.
	LastSeen     *int64     `json:"lastSeen" validate:"required,min=0"`
	Manufacturer *int64     `json:"manufacturer" validate:"required,min=0"`
	RSSI         *int       `json:"rssi" validate:"required"`
	RuuviData    *RuuviData `json:"ruuviData" validate:"required"`
	TxPower      *int       `json:"txPower" validate:"required"`
}

// RuuviData is the environmental block of a reading.
type RuuviData struct {
	// hPa
	AirPressure *float64 `json:"airPressure" validate:"required"`
	// relative humidity
	Humidity *float64 `json:"humidity" validate:"required"`
	// °C
	Temperature *float64 `json:"temperature" validate:"required"`
}

var errIncompleteBeacon = errors.New("beaconscanner: incomplete beacon reading")

// Converter implements event.Converter for Beacon Scanner payloads.
// lastSeen is an epoch value, so no zone is involved in converting it.
type Converter struct{}

// NewConverter constructs a converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Name returns the adapter name.
func (c *Converter) Name() string { return Name }

// Decode parses raw as a Beacon Scanner payload.
func (c *Converter) Decode(raw []byte) (*Payload, error) {
	var payload Payload
	if err := decode.JSON(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodeAndConvert decodes raw and maps it to events.
func (c *Converter) DecodeAndConvert(raw []byte) ([]event.Event, error) {
	return decode.Run(raw, c.Decode, c.Convert)
}

// Convert maps a decoded payload to one event per beacon, in input order.
func (c *Converter) Convert(payload *Payload) ([]event.Event, error) {
	if payload == nil || len(payload.Beacons) == 0 {
		return nil, event.ErrEmptyEvent
	}
	events := make([]event.Event, 0, len(payload.Beacons))
	for _, beacon := range payload.Beacons {
		evt, err := c.toEvent(beacon)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (c *Converter) toEvent(beacon Beacon) (event.Event, error) {
	if beacon.BeaconAddress == nil || beacon.LastSeen == nil || beacon.RSSI == nil || beacon.RuuviData == nil ||
		beacon.RuuviData.AirPressure == nil || beacon.RuuviData.Humidity == nil || beacon.RuuviData.Temperature == nil {
		return event.Event{}, &event.DecodeError{Err: errIncompleteBeacon}
	}
	data := beacon.RuuviData
	return event.New(
		*beacon.BeaconAddress,
		*data.AirPressure,
		*data.Humidity,
		*data.Temperature,
		*beacon.RSSI,
		lastSeen(*beacon.LastSeen),
	), nil
}

// lastSeen truncates epoch milliseconds to whole seconds.
func lastSeen(millis int64) time.Time {
	return time.Unix(millis/1000, 0).UTC()
}
