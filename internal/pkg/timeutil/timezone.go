package timeutil

import (
	"time"
)

// DisplayLayout is the timestamp layout used in CLI tables
const DisplayLayout = "2006-01-02 15:04:05 MST"

// ConvertToUserTimezone converts a time to the user's timezone. An empty
// timezone means the local zone; an invalid one leaves t as it is.
func ConvertToUserTimezone(t time.Time, timezone string) time.Time {
	if timezone == "" {
		return t.Local()
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		// Invalid timezone, return as-is
		return t
	}

	return t.In(loc)
}

// FormatInTimezone formats t for display in the user's timezone. The zero
// time renders as "-".
func FormatInTimezone(t time.Time, timezone string) string {
	if t.IsZero() {
		return "-"
	}
	return ConvertToUserTimezone(t, timezone).Format(DisplayLayout)
}

// IsValidTimezone checks if a timezone string is valid
func IsValidTimezone(timezone string) bool {
	if timezone == "" {
		return false
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
