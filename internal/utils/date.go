package utils

import (
	"errors"
	"time"
)

// DateLayout is how calendar days are stored and serialized.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts a plain calendar day or a full RFC 3339 timestamp. For
// timestamps the day is taken in the timestamp's own offset.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
}

// NormalizeDate returns s as YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// Today is the server's local calendar day at now.
func Today(now time.Time) string {
	return now.In(time.Local).Format(DateLayout)
}

// NotBeforeToday reports whether the day s is today or later.
func NotBeforeToday(s string, now time.Time) bool {
	day, err := NormalizeDate(s)
	if err != nil {
		return false
	}
	// YYYY-MM-DD sorts lexically.
	return day >= Today(now)
}

// FormatDate renders a DATE column scanned by pgx. pgx hands DATE values back
// as midnight UTC, so the UTC day is the stored day.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
