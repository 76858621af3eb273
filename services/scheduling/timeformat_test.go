package scheduling

import (
	"errors"
	"testing"
)

func TestParseTo24Hour(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "morning with minutes",
			input:    "9:00 AM",
			expected: "09:00",
		},
		{
			name:     "noon",
			input:    "12:00 PM",
			expected: "12:00",
		},
		{
			name:     "past midnight",
			input:    "12:30 AM",
			expected: "00:30",
		},
		{
			name:     "afternoon",
			input:    "2:30 PM",
			expected: "14:30",
		},
		{
			name:     "missing minutes default to zero",
			input:    "7 PM",
			expected: "19:00",
		},
		{
			name:     "lowercase marker without space",
			input:    "9:00am",
			expected: "09:00",
		},
		{
			name:     "already 24-hour stays put",
			input:    "14:30",
			expected: "14:30",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTo24Hour(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestParseTo24HourInvalid(t *testing.T) {
	for _, input := range []string{"", "noon", "AM"} {
		if _, err := ParseTo24Hour(input); !errors.Is(err, ErrFormat) {
			t.Fatalf("expected ErrFormat for %q, got %v", input, err)
		}
	}
}

func TestFormatTo12Hour(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "00:00", expected: "12:00AM"},
		{input: "13:00", expected: "1:00PM"},
		{input: "09:00", expected: "9:00AM"},
		{input: "12:00", expected: "12:00PM"},
		{input: "23:45", expected: "11:45PM"},
	}

	for _, tc := range tests {
		got, err := FormatTo12Hour(tc.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if got != tc.expected {
			t.Fatalf("FormatTo12Hour(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}

// The 12-hour round trip must stabilize after the first normalization.
func TestRoundTripStabilizes(t *testing.T) {
	for _, input := range []string{"9:00 AM", "12:00 PM", "12:30 AM", "5:15 pm"} {
		first, err := ParseTo24Hour(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		twelve, err := FormatTo12Hour(first)
		if err != nil {
			t.Fatalf("format %q: %v", first, err)
		}
		second, err := ParseTo24Hour(twelve)
		if err != nil {
			t.Fatalf("re-parse %q: %v", twelve, err)
		}
		if first != second {
			t.Fatalf("round trip drifted for %q: %q != %q", input, first, second)
		}
	}
}

func TestSplitRange(t *testing.T) {
	start, end, err := SplitRange("10:00 AM - 12:00 PM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "10:00 AM" || end != "12:00 PM" {
		t.Fatalf("unexpected parts: %q, %q", start, end)
	}

	if _, _, err := SplitRange("10:00 AM to 12:00 PM"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for missing separator, got %v", err)
	}
}
