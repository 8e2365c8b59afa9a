package storage

import "time"

const keyFormat = "2006-01-02"

// DayKey returns the calendar-date bucket key for t, in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(keyFormat)
}

// WeekKey returns the Monday-anchored ISO week bucket key for t: the
// date of the Monday starting the week containing t, in UTC. A Sunday
// belongs to the week of the Monday six days earlier.
func WeekKey(t time.Time) string {
	u := t.UTC()
	offset := (int(u.Weekday()) + 6) % 7
	return u.AddDate(0, 0, -offset).Format(keyFormat)
}
