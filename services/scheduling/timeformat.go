package scheduling

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrFormat marks malformed time or range text. Callers must treat it as a bad
// request, never as an empty result.
var ErrFormat = errors.New("malformed time format")

var clockPattern = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?`)

// ParseTo24Hour converts free-form 12-hour text such as "9:00 AM" or "2:30pm"
// into a zero-padded 24-hour "HH:MM" string. Missing minutes default to "00".
// Zero-padding keeps the result lexicographically sortable.
func ParseTo24Hour(text string) (string, error) {
	match := clockPattern.FindStringSubmatch(text)
	if match == nil {
		return "", fmt.Errorf("%w: no digits in %q", ErrFormat, text)
	}

	hour, err := strconv.Atoi(match[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad hour in %q", ErrFormat, text)
	}
	minute := 0
	if match[2] != "" {
		minute, err = strconv.Atoi(match[2])
		if err != nil {
			return "", fmt.Errorf("%w: bad minutes in %q", ErrFormat, text)
		}
	}

	upper := strings.ToUpper(text)
	isPM := strings.Contains(upper, "PM")
	isAM := strings.Contains(upper, "AM")

	switch {
	case hour == 12 && isAM:
		hour = 0
	case hour != 12 && isPM:
		hour += 12
	}

	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%w: out-of-range time %q", ErrFormat, text)
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// FormatTo12Hour converts a zero-padded 24-hour "HH:MM" string into the
// 12-hour form used on the wire, with no space before the marker ("9:00AM").
func FormatTo12Hour(value string) (string, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected HH:MM, got %q", ErrFormat, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("%w: bad hour in %q", ErrFormat, value)
	}

	marker := "AM"
	if hour >= 12 {
		marker = "PM"
	}

	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}

	return fmt.Sprintf("%d:%s%s", hour, parts[1], marker), nil
}

// SplitRange splits a "start - end" range string on the literal " - "
// separator and trims both sides.
func SplitRange(value string) (string, string, error) {
	start, end, found := strings.Cut(value, " - ")
	if !found {
		return "", "", fmt.Errorf("%w: missing \" - \" separator in %q", ErrFormat, value)
	}
	return strings.TrimSpace(start), strings.TrimSpace(end), nil
}

// JoinRange is the inverse of SplitRange.
func JoinRange(start, end string) string {
	return start + " - " + end
}
