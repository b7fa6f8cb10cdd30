package eco

import "time"

// Store persists daily records.
type Store interface {
	Add(Record) error
	Query(vehicle string, start, end time.Time) ([]Record, error)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
