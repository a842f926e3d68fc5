package ranking

import "time"

// WeekWindow resolves a week offset to the calendar week it refers to.
// Offset 0 is the week containing now, negative offsets are past weeks,
// positive offsets future weeks. The window runs from Monday 00:00:00 to
// Sunday 23:59:59 in now's location.
func WeekWindow(now time.Time, offset int) (start, end time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// time.Weekday puts Sunday at 0; shift so Monday is 0
	weekday := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -weekday)

	start = monday.AddDate(0, 0, 7*offset)
	end = start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

// InWindow reports whether t falls inside [start, end].
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
