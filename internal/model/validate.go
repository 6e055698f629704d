package model

import (
	"fmt"
	"time"
)

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseClock parses a wall-clock time. A single-digit hour is accepted.
func ParseClock(s string) (time.Time, bool) {
	t, err := time.Parse(ClockLayout, s)
	return t, err == nil
}

// ValidClock reports whether s is a wall-clock time in HH:MM form.
func ValidClock(s string) bool {
	_, ok := ParseClock(s)
	return ok
}

// CanonicalClock returns s zero-padded to HH:MM, or s unchanged when it does
// not parse.
func CanonicalClock(s string) string {
	t, ok := ParseClock(s)
	if !ok {
		return s
	}
	return t.Format(ClockLayout)
}

// Canonical returns the draft with its clock times in HH:MM form, the form
// every storage driver reads back.
func (d TimeOptionDraft) Canonical() TimeOptionDraft {
	if d.StartTime != "" {
		d.StartTime = CanonicalClock(d.StartTime)
	}
	if d.EndTime != "" {
		d.EndTime = CanonicalClock(d.EndTime)
	}
	return d
}

// Classify checks a draft and returns the kind it describes. A draft with an
// end date is a range; otherwise both clock times are required.
func (d TimeOptionDraft) Classify() (TimeOptionKind, error) {
	if !ValidDate(d.Date) {
		return "", fmt.Errorf("date must be YYYY-MM-DD")
	}
	if d.StartTime != "" && !ValidClock(d.StartTime) {
		return "", fmt.Errorf("startTime must be HH:MM")
	}
	if d.EndTime != "" && !ValidClock(d.EndTime) {
		return "", fmt.Errorf("endTime must be HH:MM")
	}

	if d.EndDate != "" {
		if !ValidDate(d.EndDate) {
			return "", fmt.Errorf("endDate must be YYYY-MM-DD")
		}
		// layout is fixed-width so lexical order is chronological
		if d.EndDate < d.Date {
			return "", fmt.Errorf("endDate is before date")
		}
		return KindRange, nil
	}

	if d.StartTime == "" || d.EndTime == "" {
		return "", fmt.Errorf("startTime and endTime are required")
	}
	start, _ := ParseClock(d.StartTime)
	end, _ := ParseClock(d.EndTime)
	if end.Before(start) {
		return "", fmt.Errorf("endTime is before startTime")
	}
	return KindSlot, nil
}
