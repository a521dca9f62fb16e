package ruuvistation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	event "ruuvari-collector/internal/event/domain"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		value string
		want  time.Time
	}{
		{"Apr 14, 2018 12:22:27 AM", time.Date(2018, 4, 14, 0, 22, 27, 0, time.UTC)},
		{"Apr 14, 2018 12:22:27 PM", time.Date(2018, 4, 14, 12, 22, 27, 0, time.UTC)},
		{"Apr 14, 2018 1:05:00 PM", time.Date(2018, 4, 14, 13, 5, 0, 0, time.UTC)},
		{"Apr 14, 2018 12:22:27 am", time.Date(2018, 4, 14, 0, 22, 27, 0, time.UTC)},
		{"Apr 14, 2018 1:05:00 pm", time.Date(2018, 4, 14, 13, 5, 0, 0, time.UTC)},
		{"Apr 14, 2018 1:05:00 Pm", time.Date(2018, 4, 14, 13, 5, 0, 0, time.UTC)},
		{"Apr 17, 2018 09:32:00", time.Date(2018, 4, 17, 9, 32, 0, 0, time.UTC)},
		{"Apr 15, 2018 21:16:17", time.Date(2018, 4, 15, 21, 16, 17, 0, time.UTC)},
		{"Apr 4, 2018 21:16:17", time.Date(2018, 4, 4, 21, 16, 17, 0, time.UTC)},
		{"Apr 04, 2018 21:16:17", time.Date(2018, 4, 4, 21, 16, 17, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := ParseTimestamp(tc.value, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTimestampRejectsUnknownLayouts(t *testing.T) {
	for _, value := range []string{"2018/04/14", "", "2018-04-14T00:22:27Z", "Apr 14, 2018 25:00:00", "Apr 14, 2018 12:22:27 XM"} {
		t.Run(value, func(t *testing.T) {
			_, err := ParseTimestamp(value, time.UTC)
			assert.ErrorIs(t, err, event.ErrParse)
			assert.Equal(t, event.KindParseError, event.KindOf(err))
		})
	}
}

func TestParseTimestampUsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	got, err := ParseTimestamp("Apr 17, 2018 09:32:00", zone)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 4, 17, 14, 32, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseErrorKeepsOriginalValue(t *testing.T) {
	_, err := ParseTimestamp("Apr 14, 2018 25:22:27 am", time.UTC)
	var parseErr *event.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Apr 14, 2018 25:22:27 am", parseErr.Value)
}

func TestTimestampLayoutOrder(t *testing.T) {
	require.Len(t, timestampLayouts, 2)
	assert.Equal(t, "Jan 2, 2006 3:04:05 PM", timestampLayouts[0])
	assert.Equal(t, "Jan 2, 2006 15:04:05", timestampLayouts[1])
}
