package transform

import (
	"strconv"
	"strings"
	"time"
)

// The destination stores date properties as epoch milliseconds at midnight
// UTC. Source records carry dates in three encodings: mm/dd/yyyy, yyyy-mm-dd,
// and a packed yyyymmddhhmmss numeric string whose time-of-day component is
// deliberately discarded.

const (
	minYear = 1900
	maxYear = 2099
)

// NormalizeDate converts a raw source date string to epoch milliseconds at
// UTC midnight of that calendar date. The second return value is false for
// malformed or out-of-range input; callers skip the field in that case.
func NormalizeDate(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	var year, month, day int
	var ok bool

	switch {
	case strings.Contains(raw, "/"):
		// mm/dd/yyyy
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			return 0, false
		}
		month, day, year, ok = atoi3(parts[0], parts[1], parts[2])
	case strings.Contains(raw, "-"):
		// yyyy-mm-dd, tolerating a trailing time component
		datePart := raw
		if i := strings.IndexAny(raw, "T "); i > 0 {
			datePart = raw[:i]
		}
		parts := strings.Split(datePart, "-")
		if len(parts) != 3 {
			return 0, false
		}
		year, month, day, ok = atoi3(parts[0], parts[1], parts[2])
	case isDigits(raw) && (len(raw) == 14 || len(raw) == 8):
		// Packed yyyymmddhhmmss (or bare yyyymmdd); time-of-day discarded
		year, month, day, ok = atoi3(raw[0:4], raw[4:6], raw[6:8])
	default:
		return 0, false
	}

	if !ok {
		return 0, false
	}

	if year < minYear || year > maxYear || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject that.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return 0, false
	}

	return t.UnixMilli(), true
}

func atoi3(a, b, c string) (int, int, int, bool) {
	x, err1 := strconv.Atoi(a)
	y, err2 := strconv.Atoi(b)
	z, err3 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
