package billing

import (
	"fmt"
	"time"
)

// Frequency is the unit a recurring template advances by.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// NextRunDate advances from by interval units of freq.
// Daily adds interval days, weekly 7*interval days, monthly interval months
// with the day-of-month clamped to the target month's last day, yearly
// interval years (Feb 29 clamps to Feb 28 off leap years).
func NextRunDate(from time.Time, freq Frequency, interval int) (time.Time, error) {
	if interval <= 0 {
		return from, fmt.Errorf("interval must be positive, got %d", interval)
	}
	switch freq {
	case FrequencyDaily:
		return addClamped(from, 0, 0, interval), nil
	case FrequencyWeekly:
		return addClamped(from, 0, 0, 7*interval), nil
	case FrequencyMonthly:
		return addClamped(from, 0, interval, 0), nil
	case FrequencyYearly:
		return addClamped(from, interval, 0, 0), nil
	default:
		return from, fmt.Errorf("unknown frequency %q", freq)
	}
}

// addClamped is time.AddDate without the normalization overflow: Jan 31 +1
// month lands on Feb 28/29, not Mar 2/3.
func addClamped(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := int(m) + months
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	lastDay := time.Date(newY, time.Month(newM)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	newD := d
	if newD > lastDay {
		newD = lastDay
	}

	out := time.Date(newY, time.Month(newM), newD, h, min, sec, t.Nanosecond(), t.Location())
	if days != 0 {
		out = out.AddDate(0, 0, days)
	}
	return out
}
