package errata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const epochDateFormat = "2006-01-02 15:04:05 -0700"

var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	epochDateFormat,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ConvertDateIfEpoch converts a timestamp made only of digits, as found in
// SUSE metadata, from a unix epoch to a date string. Any other value is
// returned unchanged.
func ConvertDateIfEpoch(date string) string {
	if !isEpoch(date) {
		return date
	}
	return epochToDate(date)
}

// isEpoch accepts only the canonical decimal form, "007" is not an epoch.
func isEpoch(date string) bool {
	seconds, err := strconv.ParseInt(date, 10, 64)
	if err != nil || seconds < 0 {
		return false
	}
	return strconv.FormatInt(seconds, 10) == date
}

func epochToDate(epoch string) string {
	seconds, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(seconds, 0).UTC().Format(epochDateFormat)
}

// ParseTimestamp parses the date formats found in advisory metadata. Epoch
// values should go through ConvertDateIfEpoch first.
func ParseTimestamp(value string) (t time.Time, err error) {
	value = strings.TrimSpace(value)
	for _, format := range timestampFormats {
		t, err = time.Parse(format, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse timestamp %q: %w", value, err)
}
