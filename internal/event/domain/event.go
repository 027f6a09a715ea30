// Package domain defines church agenda events.
package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrValidation is matched by input validation failures.
var ErrValidation = errors.New("invalid event")

// Event is one entry of the church agenda.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location"`
	Department  string `json:"department,omitempty"`
	Description string `json:"description,omitempty"`
}

// Day parses Date as YYYY-MM-DD. ok is false for malformed dates.
func (e Event) Day() (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(e.Date))
	return d, err == nil
}

// Matches reports whether term occurs in the title or location, case-insensitively. An empty term matches.
func (e Event) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Location), term)
}

// Input is a create request.
type Input struct {
	Type        string
	Title       string
	Date        string
	Time        string
	Location    string
	Department  string
	Description string
}

// Validate checks required fields and formats.
func (in Input) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return errors.Join(ErrValidation, errors.New("title is required"))
	case strings.TrimSpace(in.Location) == "":
		return errors.Join(ErrValidation, errors.New("location is required"))
	case strings.TrimSpace(in.Date) == "":
		return errors.Join(ErrValidation, errors.New("date is required"))
	}
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(in.Date)); err != nil {
		return errors.Join(ErrValidation, errors.New("date must be YYYY-MM-DD"))
	}
	if t := strings.TrimSpace(in.Time); t != "" {
		if _, err := time.Parse("15:04", t); err != nil {
			return errors.Join(ErrValidation, errors.New("time must be HH:MM"))
		}
	}
	return nil
}
