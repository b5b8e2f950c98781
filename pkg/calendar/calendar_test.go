package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayStartUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 16th is still the 15th in New York (EDT, UTC-4).
	now := time.Date(2026, 10, 16, 2, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 10, 15, 4, 0, 0, 0, time.UTC), DayStart(now, loc))
	require.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), DayStart(now, nil))
}

func TestDateAndKey(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2026, 10, 16, 2, 30, 0, 0, time.UTC)
	require.Equal(t, "2026-10-15", Key(Date(now, loc)))
	require.Equal(t, "2026-10-16", Key(Date(now, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	recorded, err := ParseDate("2026-10-10")
	require.NoError(t, err)
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 6, DaysBetween(recorded, today))
	require.Equal(t, 0, DaysBetween(today, today))

	_, err = ParseDate("10/16/2026")
	require.Error(t, err)
}
