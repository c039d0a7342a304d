package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendarUnknownVenue(t *testing.T) {
	_, err := NewCalendar("MOON")
	assert.Error(t, err)
}

func TestCalendarIsOpen(t *testing.T) {
	cal, err := NewCalendar("NYSE")
	require.NoError(t, err)

	ny := cal.Location()

	// Friday 2024-03-15.
	assert.True(t, cal.IsOpen(time.Date(2024, 3, 15, 10, 0, 0, 0, ny)))
	assert.True(t, cal.IsOpen(time.Date(2024, 3, 15, 9, 30, 0, 0, ny)))
	assert.False(t, cal.IsOpen(time.Date(2024, 3, 15, 9, 29, 0, 0, ny)))
	assert.False(t, cal.IsOpen(time.Date(2024, 3, 15, 16, 0, 0, 0, ny)))

	// Weekend.
	assert.False(t, cal.IsOpen(time.Date(2024, 3, 16, 10, 0, 0, 0, ny)))
	assert.False(t, cal.IsOpen(time.Date(2024, 3, 17, 10, 0, 0, 0, ny)))
}

func TestCalendarIsOpenConvertsZones(t *testing.T) {
	cal, err := NewCalendar("NYSE")
	require.NoError(t, err)

	// 14:00 UTC on a Friday in March is 10:00 in New York.
	assert.True(t, cal.IsOpen(time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)))
}

func TestCalendarSessionBounds(t *testing.T) {
	cal, err := NewCalendar("LSE")
	require.NoError(t, err)

	day := time.Date(2024, 3, 15, 12, 0, 0, 0, cal.Location())
	assert.Equal(t, 8, cal.SessionOpen(day).Hour())
	assert.Equal(t, 16, cal.SessionClose(day).Hour())
	assert.Equal(t, 30, cal.SessionClose(day).Minute())
}
