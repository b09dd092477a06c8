package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	durations := map[string]time.Duration{
		"0":         0,
		"45":        45 * time.Second,
		" 90 ":      90 * time.Second,
		"1:30":      90 * time.Second,
		"0:90":      90 * time.Second,
		"12:34":     12*time.Minute + 34*time.Second,
		"1:02:03":   time.Hour + 2*time.Minute + 3*time.Second,
		"01:02:03":  time.Hour + 2*time.Minute + 3*time.Second,
		"10:00:00":  10 * time.Hour,
		"0:0:3600":  time.Hour,
		"2: 15 : 0": 2*time.Hour + 15*time.Minute,
	}
	for value, expected := range durations {
		parsed, err := ParseDuration(value)
		if err != nil {
			t.Errorf("%q: %v", value, err)
			continue
		}
		if parsed != expected {
			t.Errorf("%q: expected %v, got %v", value, expected, parsed)
		}
	}
	invalid := []string{
		"", "   ", "abc", "1:2:3:4", "-5", "1:-30", "12:", ":30",
		"1.5", "1:30.5", "1h30m",
	}
	for _, value := range invalid {
		if _, err := ParseDuration(value); err == nil {
			t.Errorf("%q: expected error", value)
		} else {
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Errorf("%q: expected validation error, got %v", value, err)
			}
		}
	}
}

func TestFormatDuration(t *testing.T) {
	values := map[int64]string{
		0:     "00:00",
		45:    "00:45",
		90:    "01:30",
		3599:  "59:59",
		3600:  "01:00:00",
		36123: "10:02:03",
		-1:    "00:00",
	}
	for value, expected := range values {
		if formatted := FormatDuration(value); formatted != expected {
			t.Errorf("%v: expected %q, got %q", value, expected, formatted)
		}
	}
}

func TestParseFormatDuration(t *testing.T) {
	// Different accepted forms of equal elapsed time should
	// parse to the same duration.
	forms := []string{"3723", "62:03", "1:02:03"}
	for _, form := range forms {
		parsed, err := ParseDuration(form)
		if err != nil {
			t.Fatalf("%q: %v", form, err)
		}
		if formatted := FormatDuration(int64(parsed / time.Second)); formatted != "01:02:03" {
			t.Errorf("%q: expected \"01:02:03\", got %q", form, formatted)
		}
	}
}
