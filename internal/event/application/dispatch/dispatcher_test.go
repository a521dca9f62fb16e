package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruuvari-collector/internal/event/adapters/beaconscanner"
	"ruuvari-collector/internal/event/adapters/ruuvistation"
	event "ruuvari-collector/internal/event/domain"
)

const ruuviPayload = `{"deviceId":"854af65f-13db-4082-b07e-89129690d275","eventId":"9e6329dd-06eb-474c-9d1d-9b4373704a6d","tag":{"accelX":0.0,"accelY":0.0,"accelZ":0.0,"defaultBackground":1,"favorite":true,"humidity":22.0,"id":"D7:58:D2:87:08:F8","name":"Devitagi","pressure":996.0,"rawDataBlob":{"blob":[4,44,20,0,-63,-64]},"rssi":-57,"temperature":20.0,"updateAt":"Apr 14, 2018 12:22:27 AM","voltage":0.0},"time":"Apr 14, 2018 12:22:27 AM"}`

const scannerPayload = `{"beacons":[{"beaconAddress":"D7:58:D2:87:08:F8","beaconType":"ruuvitag","distance":2.53,"eddystoneUrlData":{"url":"https://ruu.vi/#BCwVAMCUr"},"hashcode":1141403717,"isBlocked":false,"lastMinuteSeen":25396428,"lastSeen":1523785721504,"manufacturer":65194,"rssi":-60,"ruuviData":{"airPressure":993,"humidity":22,"temperature":21},"txPower":-48}],"reader":"Scanner 1"}`

type fakeConverter struct {
	name   string
	events []event.Event
	err    error
	calls  int
}

func (f *fakeConverter) Name() string { return f.name }

func (f *fakeConverter) DecodeAndConvert([]byte) ([]event.Event, error) {
	f.calls++
	return f.events, f.err
}

func TestNewValidatesOrder(t *testing.T) {
	a := &fakeConverter{name: "a"}
	b := &fakeConverter{name: "b"}

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoConverters)

	_, err = New([]string{"a", "c"}, a, b)
	assert.ErrorIs(t, err, ErrUnknownAdapter)

	_, err = New([]string{"a", "a"}, a, b)
	assert.ErrorIs(t, err, ErrDuplicateAdapter)

	_, err = New([]string{"a"}, a, &fakeConverter{name: "a"})
	assert.ErrorIs(t, err, ErrDuplicateAdapter)

	d, err := New([]string{"b", " a"}, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, d.Order())
}

func TestDefaultOrderIsRuuviFirst(t *testing.T) {
	d, err := NewDefault(nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{ruuvistation.Name, beaconscanner.Name}, d.Order())
}

func TestDispatchStopsAtFirstSuccess(t *testing.T) {
	first := &fakeConverter{name: "first", events: []event.Event{{BeaconAddress: "x"}}}
	second := &fakeConverter{name: "second", events: []event.Event{{BeaconAddress: "y"}}}
	d, err := New([]string{"first", "second"}, first, second)
	require.NoError(t, err)

	res, err := d.Dispatch([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "first", res.Adapter)
	assert.Equal(t, "x", res.Events[0].BeaconAddress)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestDispatchFallsThrough(t *testing.T) {
	first := &fakeConverter{name: "first", err: &event.DecodeError{Err: errors.New("nope")}}
	second := &fakeConverter{name: "second", events: []event.Event{{BeaconAddress: "y"}}}
	d, err := New([]string{"first", "second"}, first, second)
	require.NoError(t, err)

	res, err := d.Dispatch([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "second", res.Adapter)
	assert.Equal(t, 1, first.calls)
}

func TestDispatchVendorPayloads(t *testing.T) {
	d, err := NewDefault(nil, time.UTC)
	require.NoError(t, err)

	res, err := d.Dispatch([]byte(ruuviPayload))
	require.NoError(t, err)
	assert.Equal(t, ruuvistation.Name, res.Adapter)
	require.Len(t, res.Events, 1)
	assert.Equal(t, -57, res.Events[0].RSSI)

	res, err = d.Dispatch([]byte(scannerPayload))
	require.NoError(t, err)
	assert.Equal(t, beaconscanner.Name, res.Adapter)
	require.Len(t, res.Events, 1)
	assert.Equal(t, -60, res.Events[0].RSSI)
}

func TestRuuviPayloadNeverReachesSecondAdapter(t *testing.T) {
	spy := &fakeConverter{name: beaconscanner.Name}
	d, err := New(nil, ruuvistation.NewConverter(ruuvistation.WithLocation(time.UTC)), spy)
	require.NoError(t, err)

	_, err = d.Dispatch([]byte(ruuviPayload))
	require.NoError(t, err)
	assert.Zero(t, spy.calls)
}

func TestDispatchAllFail(t *testing.T) {
	d, err := NewDefault(nil, time.UTC)
	require.NoError(t, err)

	res, err := d.Dispatch([]byte(`{"hello":"world"}`))
	require.Error(t, err)
	assert.Empty(t, res.Adapter)
	assert.Nil(t, res.Events)
	assert.ErrorIs(t, err, event.ErrDecode)
	assert.Contains(t, err.Error(), ruuvistation.Name+": ")
	assert.Contains(t, err.Error(), beaconscanner.Name+": ")

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	require.Len(t, noMatch.Failures, 2)
	assert.Equal(t, ruuvistation.Name, noMatch.Failures[0].Adapter)
	assert.Equal(t, beaconscanner.Name, noMatch.Failures[1].Adapter)
}

func TestDispatchKeepsEmptyEventVisible(t *testing.T) {
	d, err := NewDefault(nil, time.UTC)
	require.NoError(t, err)

	_, err = d.Dispatch([]byte(`{"beacons":[],"reader":"Scanner 1"}`))
	assert.ErrorIs(t, err, event.ErrEmptyEvent)

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, event.KindDecodeError, event.KindOf(noMatch.Failures[0].Err))
	assert.Equal(t, event.KindEmptyEvent, event.KindOf(noMatch.Failures[1].Err))
}
