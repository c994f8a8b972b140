package database

import (
	"testing"
	"time"
)

func TestScheduleLastSlot(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule Schedule
		want     time.Time
	}{
		{"daily earlier today", Schedule{Frequency: FrequencyDaily, Hour: 8}, time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)},
		{"daily later today", Schedule{Frequency: FrequencyDaily, Hour: 18}, time.Date(2024, 5, 14, 18, 0, 0, 0, time.UTC)},
		{"weekly monday", Schedule{Frequency: FrequencyWeekly, Hour: 8, Weekday: 1}, time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC)},
		{"weekly today passed", Schedule{Frequency: FrequencyWeekly, Hour: 9, Weekday: 3}, time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)},
		{"weekly today pending", Schedule{Frequency: FrequencyWeekly, Hour: 11, Weekday: 3}, time.Date(2024, 5, 8, 11, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schedule.LastSlot(now); !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScheduleDue(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
	daily := Schedule{Frequency: FrequencyDaily, Hour: 8, Enabled: true}

	sentToday := time.Date(2024, 5, 15, 8, 5, 0, 0, time.UTC)
	sentYesterday := time.Date(2024, 5, 14, 8, 5, 0, 0, time.UTC)

	if !daily.Due(now, nil) {
		t.Error("Never-sent subscriber should be due")
	}
	if daily.Due(now, &sentToday) {
		t.Error("Subscriber sent after today's slot should not be due")
	}
	if !daily.Due(now, &sentYesterday) {
		t.Error("Subscriber last sent yesterday should be due")
	}

	disabled := daily
	disabled.Enabled = false
	if disabled.Due(now, nil) {
		t.Error("Disabled schedule should never be due")
	}
}
