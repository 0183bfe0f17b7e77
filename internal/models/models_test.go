package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey_SameDayDifferentTimes(t *testing.T) {
	loc := time.UTC
	morning := time.Date(2024, 6, 1, 8, 30, 0, 0, loc)
	evening := time.Date(2024, 6, 1, 23, 59, 59, 0, loc)

	assert.Equal(t, "2024-06-01", DayKey(morning, loc))
	assert.Equal(t, DayKey(morning, loc), DayKey(evening, loc))
}

func TestDayKey_TimezoneBoundary(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	assert.NoError(t, err)

	// 22:00 UTC on May 31 is already June 1 in Bangkok (UTC+7).
	ts := time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-31", DayKey(ts, time.UTC))
	assert.Equal(t, "2024-06-01", DayKey(ts, bangkok))
}

func TestDayKey_NilLocationDefaultsToUTC(t *testing.T) {
	ts := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-07-04", DayKey(ts, nil))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusAccepted))
	assert.True(t, ValidStatus(StatusRejected))
	assert.False(t, ValidStatus("confirmed"))
	assert.False(t, ValidStatus(""))
}
