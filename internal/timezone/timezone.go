// internal/timezone/timezone.go

// Package timezone resolves named zones and moves instants across the
// business-hours window. Unrecognized zone names degrade to UTC instead of
// failing, so callers never branch on a resolution error.
package timezone

import (
	"time"
	// Embedded zone database so containers without /usr/share/zoneinfo
	// still resolve names like "America/Denver".
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
)

// Default business-hours window, local hours [start, end).
const (
	DefaultStartHour = 9
	DefaultEndHour   = 17
)

// Resolve returns the location for name, or UTC when the name is empty or
// unknown. It never fails.
func Resolve(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Str("timezone", name).Err(err).Msg("unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

// ToUTC reinterprets t's wall-clock reading as a local time in zone and
// returns the corresponding UTC instant. The location already attached to t
// is ignored: a "naive" datetime is assumed to be in the target zone.
func ToUTC(t time.Time, zone string) time.Time {
	loc := Resolve(zone)
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC()
}

// FromUTC reinterprets t's wall-clock reading as UTC and returns the
// wall-clock time in zone. Note the asymmetry with ToUTC: here a "naive"
// datetime is assumed to already be UTC.
func FromUTC(t time.Time, zone string) time.Time {
	loc := Resolve(zone)
	utc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return utc.In(loc)
}

// IsBusinessHours reports whether the instant t falls on a Mon-Fri local hour
// within [startHour, endHour) in zone.
func IsBusinessHours(t time.Time, zone string, startHour, endHour int) bool {
	local := t.In(Resolve(zone))
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return local.Hour() >= startHour && local.Hour() < endHour
}

// NextBusinessHour returns t unchanged when it already falls inside business
// hours, otherwise the next business-hours opening, as a UTC instant:
// weekends advance to Monday at startHour, pre-open snaps to startHour the
// same day, at-or-after close snaps to startHour the next day. The rules are
// applied until stable, so Friday evening lands on Monday morning.
func NextBusinessHour(t time.Time, zone string, startHour, endHour int) time.Time {
	loc := Resolve(zone)
	local := t.In(loc)

	for !isBusinessLocal(local, startHour, endHour) {
		switch {
		case local.Weekday() == time.Saturday:
			local = atHour(local.AddDate(0, 0, 2), startHour, loc)
		case local.Weekday() == time.Sunday:
			local = atHour(local.AddDate(0, 0, 1), startHour, loc)
		case local.Hour() < startHour:
			local = atHour(local, startHour, loc)
		default: // at or past endHour
			local = atHour(local.AddDate(0, 0, 1), startHour, loc)
		}
	}
	return local.UTC()
}

func isBusinessLocal(local time.Time, startHour, endHour int) bool {
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return local.Hour() >= startHour && local.Hour() < endHour
}

func atHour(local time.Time, hour int, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}
