package timeofday

import "fmt"

// FormatHuman renders "HH:MM" on a 12-hour clock, e.g. "13:05" -> "1:05 PM".
// Hours 0 and 12 are shown as 12.
func FormatHuman(s string) (string, error) {
	total, err := ToMinutes(s)
	if err != nil {
		return "", err
	}
	h, m := total/60, total%60

	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix), nil
}

// FormatDuration renders minutes as "Xh Ym", or "Ym" below one hour.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
