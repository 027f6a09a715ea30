package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrMalformedDate is returned by ParseBirthDate for empty or unparsable input.
var ErrMalformedDate = errors.New("malformed date")

// ParseBirthDate accepts a calendar date (2006-01-02) or an RFC 3339 instant.
// Only the calendar part is kept, so the result is midnight UTC of that day.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMalformedDate
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrMalformedDate
}

// Age returns the age in whole years on the calendar day of now.
// The year difference is decremented when now's (month, day) falls before the birthday.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
