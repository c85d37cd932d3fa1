package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDayScanFormats(t *testing.T) {
	var tod TimeOfDay

	require.NoError(t, tod.Scan("08:30:00"))
	assert.Equal(t, NewTimeOfDay(8, 30), tod)

	require.NoError(t, tod.Scan([]byte("21:05")))
	assert.Equal(t, NewTimeOfDay(21, 5), tod)

	require.NoError(t, tod.Scan(time.Date(2026, 1, 1, 7, 45, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(7, 45), tod)

	assert.Error(t, tod.Scan("not-a-time"))
	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayValueAlwaysHasSeconds(t *testing.T) {
	v, err := NewTimeOfDay(8, 0).Value()
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", v)
}

func TestTimeOfDayAtAnchorsToDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	day := time.Date(2026, 3, 10, 23, 59, 0, 0, loc)

	anchored := NewTimeOfDay(8, 15).At(day)

	assert.Equal(t, time.Date(2026, 3, 10, 8, 15, 0, 0, loc), anchored)
	assert.Equal(t, loc, anchored.Location())
}

func TestTimeOfDayJSONRoundTrip(t *testing.T) {
	out, err := json.Marshal(NewTimeOfDay(18, 0))
	require.NoError(t, err)
	assert.Equal(t, `"18:00"`, string(out))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"06:30"`), &tod))
	assert.Equal(t, NewTimeOfDay(6, 30), tod)
}
