package clock

import (
	"fmt"
	"time"
)

const layout = "2006-01-02T15:04:05Z"

func Now() string {
	return time.Now().UTC().Format(layout)
}

// Day returns the calendar date (UTC) in YYYY-MM-DD form.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Today is the current UTC calendar date in YYYY-MM-DD form.
func Today() string {
	return Day(time.Now())
}

// Duration duration between two times represented as strings
func Duration(from, to string) (time.Duration, error) {
	fromTime, err := time.Parse(layout, from)
	if err != nil {
		return 0, fmt.Errorf("from is not a valid time: %s", from)
	}
	toTime, err := time.Parse(layout, to)
	if err != nil {
		return 0, fmt.Errorf("to is not a valid time: %s", to)
	}
	return toTime.Sub(fromTime), nil
}
