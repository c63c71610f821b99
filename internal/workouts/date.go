package workouts

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical stored date format (yyyy-MM-dd, no time zone).
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// DateValue holds a workout date as submitted: either the canonical string or
// a structured timestamp. Normalize turns both into the canonical string.
type DateValue struct {
	raw        string
	at         time.Time
	structured bool
}

func DateString(s string) DateValue {
	return DateValue{raw: s}
}

func DateOf(t time.Time) DateValue {
	return DateValue{at: t, structured: true}
}

func (d DateValue) IsZero() bool {
	return !d.structured && d.raw == ""
}

func (d DateValue) IsStructured() bool {
	return d.structured
}

// Normalize returns the yyyy-MM-dd form. A structured value keeps the calendar
// day of its own location; no time zone conversion happens.
func (d DateValue) Normalize() (string, error) {
	if d.structured {
		if d.at.IsZero() {
			return "", ErrInvalidDate
		}
		return d.at.Format(DateLayout), nil
	}
	if d.raw == "" {
		return "", ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, d.raw); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, d.raw)
	}
	return d.raw, nil
}

func (d DateValue) MarshalJSON() ([]byte, error) {
	if d.structured {
		return json.Marshal(d.at.Format(time.RFC3339Nano))
	}
	return json.Marshal(d.raw)
}

// UnmarshalJSON accepts "yyyy-MM-dd" as the canonical form and RFC 3339
// timestamps (what a JS Date serializes to) as structured values.
func (d *DateValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: expected a string", ErrInvalidDate)
	}

	if _, err := time.Parse(DateLayout, s); err == nil || s == "" {
		*d = DateString(s)
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// keep the raw value, validation reports it per field
		*d = DateString(s)
		return nil
	}
	*d = DateOf(t)
	return nil
}

// ParseDate parses a canonical stored date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
