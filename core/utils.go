package core

import (
	"strings"
	"time"
)

// BirthDateFormat is the only accepted wire format for birth dates.
const BirthDateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseBirthDate parses an ISO "YYYY-MM-DD" date string.
func ParseBirthDate(s string) (time.Time, error) {
	return time.Parse(BirthDateFormat, CleanString(s))
}
