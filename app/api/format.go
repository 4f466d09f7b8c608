package api

import (
	"fmt"
	"time"
)

// MonthDay renders t as "Jan 2nd", with the short year appended when it
// is not the year of now: "Dec 25th 22".
func MonthDay(t, now time.Time) string {
	t = t.In(now.Location())
	formatted := fmt.Sprintf("%s %d%s", t.Format("Jan"), t.Day(), daySuffix(t.Day()))
	if t.Year() != now.Year() {
		formatted += fmt.Sprintf(" %d", t.Year()%2000)
	}
	return formatted
}

// MonthDayTime is MonthDay followed by the 24-hour clock time.
func MonthDayTime(t, now time.Time) string {
	return MonthDay(t, now) + " " + t.In(now.Location()).Format("15:04")
}

func daySuffix(day int) string {
	switch day {
	case 11, 12, 13:
		return "th"
	}

	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
