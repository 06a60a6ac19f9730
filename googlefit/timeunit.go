package googlefit

import (
	"math"
	"time"
)

// TimeUnit is a bucketing granularity accepted by read requests
type TimeUnit int

const (
	Nanoseconds TimeUnit = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

var timeUnitNames = map[TimeUnit]string{
	Nanoseconds:  "NANOSECONDS",
	Microseconds: "MICROSECONDS",
	Milliseconds: "MILLISECONDS",
	Seconds:      "SECONDS",
	Minutes:      "MINUTES",
	Hours:        "HOURS",
	Days:         "DAYS",
}

var timeUnitDurations = map[TimeUnit]time.Duration{
	Nanoseconds:  time.Nanosecond,
	Microseconds: time.Microsecond,
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

// ParseTimeUnit maps a unit name to a TimeUnit. Matching is case-exact and
// anything unrecognized, including the empty string, becomes Hours.
func ParseTimeUnit(name string) TimeUnit {
	unit, _ := LookupTimeUnit(name)
	return unit
}

// LookupTimeUnit is ParseTimeUnit but also reports whether name was recognized
func LookupTimeUnit(name string) (TimeUnit, bool) {
	for unit, unitName := range timeUnitNames {
		if unitName == name {
			return unit, true
		}
	}
	return Hours, false
}

func (u TimeUnit) String() string {
	if name, ok := timeUnitNames[u]; ok {
		return name
	}
	return "UNKNOWN"
}

// Duration returns n units as a time.Duration. ok is false when the unit is
// unknown or the result does not fit in a time.Duration.
func (u TimeUnit) Duration(n int64) (d time.Duration, ok bool) {
	unit, known := timeUnitDurations[u]
	if !known {
		return 0, false
	}
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// Millis converts n units to milliseconds, truncating sub-millisecond units
// toward zero. ok is false when the unit is unknown or the result overflows.
func (u TimeUnit) Millis(n int64) (ms int64, ok bool) {
	unit, known := timeUnitDurations[u]
	if !known {
		return 0, false
	}
	if unit < time.Millisecond {
		return n / int64(time.Millisecond/unit), true
	}
	factor := int64(unit / time.Millisecond)
	if n > math.MaxInt64/factor || n < math.MinInt64/factor {
		return 0, false
	}
	return n * factor, true
}
