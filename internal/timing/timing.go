// internal/timing/timing.go

// Package timing turns LLM-authored timing labels ("Day 7, 10:00 AM",
// "Immediate (Welcome)") into concrete UTC send times, applying the
// business-hours window of the owning business.
package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/textloop/textloop-backend/internal/timezone"
)

// FormatError reports a timing label that does not match the grammar. It
// carries the offending substring so batch failures point at the exact input.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timing label %q: %s", e.Input, e.Reason)
}

// Parser resolves timing labels against a business-hours window.
type Parser struct {
	StartHour int
	EndHour   int

	now func() time.Time
}

// NewParser returns a Parser for the given business-hours window. Hours
// outside a sane range fall back to the defaults.
func NewParser(startHour, endHour int) *Parser {
	if startHour < 0 || endHour <= startHour || endHour > 24 {
		startHour = timezone.DefaultStartHour
		endHour = timezone.DefaultEndHour
	}
	return &Parser{StartHour: startHour, EndHour: endHour, now: time.Now}
}

// Parse converts a timing label into a UTC send time.
//
// Recognized forms:
//   - "Immediate..." resolves to the next business hour from now.
//   - "Day <N>, <h>[:mm] <AM|PM>" resolves to today-in-zone plus N days at
//     the given clock time, rolled forward to business hours if needed.
//
// Anything else returns a *FormatError.
func (p *Parser) Parse(text, businessZone string) (time.Time, error) {
	if strings.HasPrefix(text, "Immediate") {
		return timezone.NextBusinessHour(p.now(), businessZone, p.StartHour, p.EndHour), nil
	}

	dayPart, timePart, found := strings.Cut(text, ", ")
	if !found {
		return time.Time{}, &FormatError{Input: text, Reason: `expected "Day <N>, <time>"`}
	}

	offset, err := parseDayOffset(dayPart)
	if err != nil {
		return time.Time{}, err
	}

	clock, err := parseClock(timePart)
	if err != nil {
		return time.Time{}, err
	}

	loc := timezone.Resolve(businessZone)
	today := p.now().In(loc)
	candidate := time.Date(today.Year(), today.Month(), today.Day()+offset,
		clock.Hour(), clock.Minute(), 0, 0, loc)

	utc := candidate.UTC()
	if !timezone.IsBusinessHours(utc, businessZone, p.StartHour, p.EndHour) {
		utc = timezone.NextBusinessHour(utc, businessZone, p.StartHour, p.EndHour)
	}
	return utc, nil
}

func parseDayOffset(part string) (int, error) {
	fields := strings.Fields(part)
	if len(fields) != 2 || fields[0] != "Day" {
		return 0, &FormatError{Input: part, Reason: `expected "Day <N>"`}
	}
	offset, err := strconv.Atoi(fields[1])
	if err != nil || offset < 0 {
		return 0, &FormatError{Input: part, Reason: "day offset must be a non-negative integer"}
	}
	return offset, nil
}

// parseClock accepts 12-hour clock readings, with or without minutes.
func parseClock(part string) (time.Time, error) {
	for _, layout := range []string{"3:04 PM", "3 PM"} {
		if t, err := time.Parse(layout, part); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Input: part, Reason: "expected a 12-hour clock time like 10:00 AM"}
}
