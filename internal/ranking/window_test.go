package ranking

import (
	"testing"
	"time"
)

func TestWeekWindowStartsOnMonday(t *testing.T) {
	// One now per weekday, so the weekday arithmetic is exercised fully
	nows := []time.Time{
		time.Date(2024, 5, 13, 9, 30, 0, 0, time.UTC), // Monday
		time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),  // Tuesday
		time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), // Wednesday
		time.Date(2024, 5, 16, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 5, 17, 6, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 18, 18, 45, 0, 0, time.UTC),
		time.Date(2024, 5, 19, 23, 0, 0, 0, time.UTC), // Sunday
	}

	for _, now := range nows {
		for offset := -10; offset <= 10; offset++ {
			start, end := WeekWindow(now, offset)

			if start.Weekday() != time.Monday {
				t.Errorf("now=%v offset=%d: start %v is a %v, want Monday", now, offset, start, start.Weekday())
			}
			if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
				t.Errorf("now=%v offset=%d: start %v is not midnight", now, offset, start)
			}

			wantEnd := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			if !end.Equal(wantEnd) {
				t.Errorf("now=%v offset=%d: end = %v, want %v", now, offset, end, wantEnd)
			}
		}
	}
}

func TestWeekWindowOffsets(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name      string
		offset    int
		wantStart time.Time
	}{
		{"current week", 0, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)},
		{"last week", -1, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
		{"four weeks back", -4, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"next week", 1, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := WeekWindow(now, tt.offset)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
		})
	}
}

func TestWeekWindowsAreContiguous(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	for offset := -5; offset < 5; offset++ {
		_, end := WeekWindow(now, offset)
		nextStart, _ := WeekWindow(now, offset+1)

		if !nextStart.Equal(end.Add(time.Second)) {
			t.Errorf("offset %d: window ends %v but next starts %v", offset, end, nextStart)
		}
	}
}

func TestInWindow(t *testing.T) {
	start := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 19, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC), true},
		{"at start", start, true},
		{"at end", end, true},
		{"before", start.Add(-time.Second), false},
		{"after", end.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InWindow(tt.t, start, end); got != tt.want {
				t.Errorf("InWindow(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}
