package model

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates. Times of day use
	// TimeLayout. Both are naive strings in the school's local timezone.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ScheduleSlot reserves or opens one entity for one hour on one date.
// A row with IsAvailable=false blocks the entity for that slot.
type ScheduleSlot struct {
	ID          int64      `json:"id"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Date        string     `json:"date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	IsAvailable bool       `json:"is_available"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseTimeOfDay validates an HH:MM or HH:MM:SS time-of-day string and
// normalizes it to HH:MM.
func ParseTimeOfDay(s string) (string, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.Format(TimeLayout), nil
	}
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format(TimeLayout), nil
	}
	return "", fmt.Errorf("invalid time %q, want HH:MM", s)
}

// HourAfter returns the time-of-day one hour after start. Slots are one
// hour long, so this is the end time for a slot starting at start.
func HourAfter(start string) (string, error) {
	t, err := time.Parse(TimeLayout, start)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, want HH:MM", start)
	}
	return t.Add(time.Hour).Format(TimeLayout), nil
}

// ExpandSchedule produces one open slot per hour boundary per day in the
// window [startDate, startDate+numDays) x [startHour, endHour).
func ExpandSchedule(entityType EntityType, entityID, startDate string, numDays, startHour, endHour int) ([]ScheduleSlot, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	if numDays < 1 {
		return nil, fmt.Errorf("num_days must be at least 1, got %d", numDays)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("invalid hour window %d-%d", startHour, endHour)
	}

	slots := make([]ScheduleSlot, 0, numDays*(endHour-startHour))
	for day := 0; day < numDays; day++ {
		date := start.AddDate(0, 0, day).Format(DateLayout)
		for hour := startHour; hour < endHour; hour++ {
			slots = append(slots, ScheduleSlot{
				EntityType:  entityType,
				EntityID:    entityID,
				Date:        date,
				StartTime:   fmt.Sprintf("%02d:00", hour),
				EndTime:     fmt.Sprintf("%02d:00", (hour+1)%24),
				IsAvailable: true,
			})
		}
	}
	return slots, nil
}
