package plugin

import (
	"time"
)

// TimestampLayout is yyyy-MM-dd'T'HH:mm:ss.SSSXXX: millisecond precision with
// an explicit offset, "Z" for UTC
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// InvalidTimestamp marks a date string that could not be parsed
const InvalidTimestamp int64 = -1

// DateToTimestamp parses date into Unix milliseconds. Empty or malformed input
// yields InvalidTimestamp.
func DateToTimestamp(date string) int64 {
	if date == "" {
		return InvalidTimestamp
	}
	t, err := time.Parse(TimestampLayout, date)
	if err != nil {
		return InvalidTimestamp
	}
	return t.UnixMilli()
}

// TimestampToDate formats Unix milliseconds in loc
func TimestampToDate(timestamp int64, loc *time.Location) string {
	return time.UnixMilli(timestamp).In(loc).Format(TimestampLayout)
}
