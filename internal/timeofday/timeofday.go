// Package timeofday converts wall-clock "HH:MM" strings to minute offsets
// and back, and formats them for display.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a valid minute offset.
const MinutesPerDay = 24 * 60

// ErrFormat is matched by every *FormatError via errors.Is.
var ErrFormat = errors.New("malformed value")

// FormatError reports a time-of-day or date string that does not have its
// documented shape.
type FormatError struct {
	Kind   string // "time" or "date"
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func timeErr(input, reason string) error {
	return &FormatError{Kind: "time", Input: input, Reason: reason}
}

// ToMinutes parses "HH:MM" (24-hour) into minutes since 00:00.
//
// Both fields must be decimal digits; hour must be within [0,23] and minute
// within [0,59]. Single-digit hours ("9:05") are accepted, single-digit
// minutes are not.
func ToMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, timeErr(s, "expected HH:MM")
	}
	if !isDigits(hh) || len(hh) > 2 || !isDigits(mm) || len(mm) != 2 {
		return 0, timeErr(s, "expected HH:MM")
	}

	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 {
		return 0, timeErr(s, "hour out of range")
	}
	if m > 59 {
		return 0, timeErr(s, "minute out of range")
	}
	return h*60 + m, nil
}

// FromMinutes renders a minute offset as zero-padded "HH:MM". Values outside
// [0, MinutesPerDay) are clamped.
func FromMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Duration returns end - start in minutes. The result is negative when end
// precedes start.
func Duration(start, end string) (int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
