package event

import "time"

// Event is one broadcast of one beacon, normalized across vendor apps.
type Event struct {
	BeaconAddress string    `json:"beacon_address"`
	AirPressure   float64   `json:"air_pressure"`
	Humidity      float64   `json:"humidity"`
	Temperature   float64   `json:"temperature"`
	RSSI          int       `json:"rssi"`
	Timestamp     time.Time `json:"timestamp"`
}

// New constructs a complete event. The timestamp is stored in UTC.
func New(beaconAddress string, airPressure, humidity, temperature float64, rssi int, ts time.Time) Event {
	return Event{
		BeaconAddress: beaconAddress,
		AirPressure:   airPressure,
		Humidity:      humidity,
		Temperature:   temperature,
		RSSI:          rssi,
		Timestamp:     ts.UTC(),
	}
}

// Converter turns one raw vendor payload into one or more events.
//
// A single HTTP POST may carry readings from several beacons; each reading
// becomes one Event. On success the returned slice is never empty.
type Converter interface {
	Name() string
	DecodeAndConvert(raw []byte) ([]Event, error)
}
