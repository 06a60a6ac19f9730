package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/roessland/fitbridge/plugin"
)

var durationPattern = regexp.MustCompile(`^([0-9]+)([ywdmh])$`)

// parseDuration parses a simplified prometheus-style duration string
// Supports: y (years), m (months), w (weeks), d (days), h (hours)
// Examples: "30d", "2w", "1y", "6m", "12h"
// No combinations allowed (e.g., "1y2w" is invalid)
func parseDuration(durationStr string) (time.Duration, error) {
	matches := durationPattern.FindStringSubmatch(durationStr)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid duration format. Use format like '30d', '2w', '1y', '6m' or '12h' (no combinations allowed)")
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", matches[1])
	}

	day := 24 * time.Hour
	switch matches[2] {
	case "y":
		// Approximate: 365 days per year
		return time.Duration(value) * 365 * day, nil
	case "m":
		// Approximate: 30 days per month
		return time.Duration(value) * 30 * day, nil
	case "w":
		return time.Duration(value) * 7 * day, nil
	case "d":
		return time.Duration(value) * day, nil
	default:
		return time.Duration(value) * time.Hour, nil
	}
}

// parsePeriod parses YYYY-MM-DD, YYYY-MM or YYYY in loc and returns the start
// of the named period and the start of the one after it
func parsePeriod(dateStr string, loc *time.Location) (start, next time.Time, err error) {
	if t, err := time.ParseInLocation("2006-01-02", dateStr, loc); err == nil {
		return t, t.AddDate(0, 0, 1), nil
	}
	if t, err := time.ParseInLocation("2006-01", dateStr, loc); err == nil {
		return t, t.AddDate(0, 1, 0), nil
	}
	if t, err := time.ParseInLocation("2006", dateStr, loc); err == nil {
		return t, t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date format. Use YYYY-MM-DD, YYYY-MM, or YYYY")
}

// rangeFlags are the time range flags shared by the read commands
type rangeFlags struct {
	start string
	end   string
	since string
	until string
}

// resolveRange turns range flags into the startTime and endTime call options.
// Explicit --start/--end timestamps are passed through untouched so malformed
// values are rejected by the plugin itself.
func resolveRange(flags rangeFlags, now time.Time, loc *time.Location) (start, end string, err error) {
	if flags.start != "" && flags.end != "" {
		return flags.start, flags.end, nil
	}

	until := now.In(loc)
	if flags.until != "" {
		_, until, err = parsePeriod(flags.until, loc)
		if err != nil {
			return "", "", fmt.Errorf("failed to parse until date: %w", err)
		}
	}

	since := until.Add(-7 * 24 * time.Hour)
	if flags.since != "" {
		if d, derr := parseDuration(flags.since); derr == nil {
			since = until.Add(-d)
		} else {
			since, _, err = parsePeriod(flags.since, loc)
			if err != nil {
				return "", "", fmt.Errorf("failed to parse since date: %w", err)
			}
		}
	}

	if !since.Before(until) {
		return "", "", fmt.Errorf("--since date (%s) must be before --until date (%s)", since.Format("2006-01-02"), until.Format("2006-01-02"))
	}

	start = plugin.TimestampToDate(since.UnixMilli(), loc)
	end = plugin.TimestampToDate(until.UnixMilli(), loc)
	if flags.start != "" {
		start = flags.start
	}
	if flags.end != "" {
		end = flags.end
	}
	return start, end, nil
}
