// Package dateutils parses and compares the dates found in bank exports.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts seen in Australian bank exports.
const (
	DateLayoutISO        = "2006-01-02"
	DateLayoutAustralian = "02/01/2006"
	DateLayoutShortYear  = "02/01/06"
	DateLayoutFull       = "2006-01-02 15:04:05"
	DateLayoutWithMonth  = "2-Jan-2006"
)

// CommonFormats is tried in order. Day-first layouts come before the US
// layout so 03/04/2025 reads as 3 April.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutAustralian,
	"2/1/2006",
	DateLayoutShortYear,
	"02-01-2006",
	"02.01.2006",
	DateLayoutFull,
	DateLayoutISO + "T15:04:05Z07:00",
	DateLayoutWithMonth,
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2006/01/02",
	"01/02/2006",
}

var multiSpace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using CommonFormats.
// Returns the parsed time and the layout that matched.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse date: empty value")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// FormatDate formats a time.Time value according to the specified layout
// If no layout is provided, DateLayoutISO is used
func FormatDate(date time.Time, layout string) string {
	if date.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DateLayoutISO
	}
	return date.Format(layout)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return FormatDate(date, DateLayoutISO)
}

// CleanDateString trims and collapses whitespace
func CleanDateString(dateStr string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// SameDay reports whether both times fall on the same calendar day.
// Two zero times are considered the same day.
func SameDay(a, b time.Time) bool {
	return CompareDates(a, b) == 0
}

// CompareDates compares two dates ignoring the time of day and returns:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = time.Date(date1.Year(), date1.Month(), date1.Day(), 0, 0, 0, 0, time.UTC)
	date2 = time.Date(date2.Year(), date2.Month(), date2.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case date1.Before(date2):
		return -1
	case date1.After(date2):
		return 1
	default:
		return 0
	}
}
