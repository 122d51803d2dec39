package domain

import "time"

// DayLayout is the calendar-day key format used by reading logs.
const DayLayout = "2006-01-02"

// ReadingLog is one day's cumulative progress on a book. Value is in the
// unit of the book's tracking mode and carries the day's high-water mark,
// not a delta. Minutes holds timed reading recorded that day.
type ReadingLog struct {
	Date    string  `json:"date"`
	Value   float64 `json:"value"`
	Minutes int     `json:"minutes,omitempty"`
}

// Day returns the log's date parsed in local time.
func (l ReadingLog) Day() (time.Time, error) {
	return time.ParseInLocation(DayLayout, l.Date, time.Local)
}

// DayKey formats a timestamp as a reading log date.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
