// Package rdate derives POSIX timestamps from the catalog's ISO-8601 date
// strings, which may be empty, missing, or malformed.
package rdate

import "time"

// TryParseDate parses s as RFC3339 (ISO-8601). It returns ok=false for an
// empty string or a string the parser cannot turn into a finite instant;
// callers must branch on ok, never on string truthiness.
func TryParseDate(s string) (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Some catalog records carry fractional seconds without full RFC3339
		// strictness (e.g. "2023-06-15T10:30:00.000Z" parses fine under
		// RFC3339, but be lenient with a couple of common layouts too).
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999999Z07:00",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if parsed, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return time.Time{}, false
		}
	}
	return parsed, true
}

// ToEpochSeconds converts t to seconds-since-epoch in floating form, matching
// the reference's epoch_ms/1000 contract.
func ToEpochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// Now is the fallback wall-clock instant used whenever no record date is
// valid.
func Now() time.Time {
	return time.Now()
}
