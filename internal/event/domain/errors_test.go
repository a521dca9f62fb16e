package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	decodeErr := &DecodeError{Err: errors.New("unexpected end of JSON input")}
	parseErr := &ParseError{Value: "2018/04/14"}

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"empty", ErrEmptyEvent, KindEmptyEvent},
		{"wrapped empty", fmt.Errorf("beaconscanner: %w", ErrEmptyEvent), KindEmptyEvent},
		{"parse", parseErr, KindParseError},
		{"decode", decodeErr, KindDecodeError},
		{"joined", errors.Join(ErrEmptyEvent, decodeErr), KindDecodeError},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestDecodeErrorUnwrapsDiagnostic(t *testing.T) {
	err := json.Unmarshal([]byte(`{"a":`), &struct{}{})
	require.Error(t, err)

	wrapped := error(&DecodeError{Err: err})
	assert.ErrorIs(t, wrapped, ErrDecode)
	assert.NotErrorIs(t, wrapped, ErrParse)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, wrapped, &syntaxErr)
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Value: "2018/04/14"}
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), `"2018/04/14"`)
}

func TestNewStoresUTC(t *testing.T) {
	zone := time.FixedZone("EEST", 3*60*60)
	ts := time.Date(2018, 4, 14, 3, 22, 27, 0, zone)

	evt := New("D7:58:D2:87:08:F8", 996, 22, 20, -57, ts)

	assert.Equal(t, time.UTC, evt.Timestamp.Location())
	assert.True(t, evt.Timestamp.Equal(ts))
	assert.Equal(t, "D7:58:D2:87:08:F8", evt.BeaconAddress)
	assert.Equal(t, -57, evt.RSSI)
}
