package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSchedule(t *testing.T) {
	slots, err := ExpandSchedule(EntityAircraft, "ac-1", "2024-06-01", 3, 9, 17)
	require.NoError(t, err)

	// 3 days x 8 hour slots.
	require.Len(t, slots, 24)

	first := slots[0]
	assert.Equal(t, EntityAircraft, first.EntityType)
	assert.Equal(t, "ac-1", first.EntityID)
	assert.Equal(t, "2024-06-01", first.Date)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:00", first.EndTime)
	assert.True(t, first.IsAvailable)

	last := slots[len(slots)-1]
	assert.Equal(t, "2024-06-03", last.Date)
	assert.Equal(t, "16:00", last.StartTime)
	assert.Equal(t, "17:00", last.EndTime)

	// Every slot is exactly one hour and defaults to available.
	for _, slot := range slots {
		end, err := HourAfter(slot.StartTime)
		require.NoError(t, err)
		assert.Equal(t, slot.EndTime, end)
		assert.True(t, slot.IsAvailable)
	}
}

func TestExpandScheduleCrossesMonthBoundary(t *testing.T) {
	slots, err := ExpandSchedule(EntityCFI, "cfi-1", "2024-06-30", 2, 8, 9)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2024-06-30", slots[0].Date)
	assert.Equal(t, "2024-07-01", slots[1].Date)
}

func TestExpandScheduleValidation(t *testing.T) {
	tests := []struct {
		name      string
		startDate string
		numDays   int
		startHour int
		endHour   int
	}{
		{"bad date", "06/01/2024", 7, 9, 17},
		{"zero days", "2024-06-01", 0, 9, 17},
		{"negative days", "2024-06-01", -1, 9, 17},
		{"start after end", "2024-06-01", 7, 17, 9},
		{"start equals end", "2024-06-01", 7, 9, 9},
		{"end past midnight", "2024-06-01", 7, 9, 25},
		{"negative start", "2024-06-01", 7, -1, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandSchedule(EntityAircraft, "ac-1", tt.startDate, tt.numDays, tt.startHour, tt.endHour)
			assert.Error(t, err)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("10:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", got)

	got, err = ParseTimeOfDay("10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", got)

	_, err = ParseTimeOfDay("10am")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestHourAfter(t *testing.T) {
	end, err := HourAfter("23:00")
	require.NoError(t, err)
	assert.Equal(t, "00:00", end)

	_, err = HourAfter("noon")
	assert.Error(t, err)
}
