package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parserAt pins the parser clock so labels resolve deterministically.
func parserAt(now time.Time) *Parser {
	p := NewParser(9, 17)
	p.now = func() time.Time { return now }
	return p
}

func TestParseDayLabel(t *testing.T) {
	// Monday 2026-03-02, 15:00 UTC = 08:00 in Denver (MST).
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	p := parserAt(now)

	got, err := p.Parse("Day 7, 10:00 AM", "America/Denver")
	require.NoError(t, err)

	// Denver is on MDT (UTC-6) by March 9, so 10:00 local is 16:00 UTC.
	assert.Equal(t, time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC), got)
}

func TestParseDayZeroKeepsDate(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	p := parserAt(now)

	got, err := p.Parse("Day 0, 2 PM", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), got)
}

func TestParseRollsForwardOutsideBusinessHours(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	p := parserAt(now)

	// 8 PM is past close, so the send moves to the next morning's opening.
	got, err := p.Parse("Day 1, 8:00 PM", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), got)
}

func TestParseInsideBusinessHoursIsUntouched(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	p := parserAt(now)

	got, err := p.Parse("Day 3, 11:30 AM", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 11, 30, 0, 0, time.UTC), got)
}

func TestParseImmediate(t *testing.T) {
	// Monday 03:00 UTC: before opening, so "Immediate" means 09:00 today.
	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	p := parserAt(now)

	got, err := p.Parse("Immediate (Welcome)", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), got)

	// Already inside the window: sent now.
	p = parserAt(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	got, err = p.Parse("Immediate", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), got)
}

func TestParseRejectsMalformedLabels(t *testing.T) {
	p := parserAt(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))

	for _, label := range []string{
		"day seven, 10am",
		"Day 7",
		"Day -1, 10:00 AM",
		"Day 7, 25:00 AM",
		"tomorrow at noon",
		"",
	} {
		_, err := p.Parse(label, "UTC")
		var fe *FormatError
		require.True(t, errors.As(err, &fe), "label %q should fail with FormatError", label)
		assert.NotEmpty(t, fe.Reason, "label %q", label)
	}
}

func TestNewParserRejectsBadWindow(t *testing.T) {
	p := NewParser(17, 9)
	assert.Equal(t, 9, p.StartHour)
	assert.Equal(t, 17, p.EndHour)
}

func TestFormatBuildsBothZoneViews(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	p := parserAt(now)

	sendUTC := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	s := p.Format(sendUTC, "America/Denver", "America/New_York")

	require.NotNil(t, s.BusinessTime.DayOffset)
	assert.Equal(t, 7, *s.BusinessTime.DayOffset)
	assert.Equal(t, "2026-03-09", s.BusinessTime.Date)
	assert.Equal(t, "10:00 AM", s.BusinessTime.Time)
	assert.Equal(t, "America/Denver", s.BusinessTime.Timezone)

	require.NotNil(t, s.CustomerTime)
	assert.Equal(t, "12:00 PM", s.CustomerTime.Time)
	assert.Nil(t, s.CustomerTime.DayOffset)
}

func TestFormatOmitsCustomerBlockWithoutZone(t *testing.T) {
	p := parserAt(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	s := p.Format(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC), "", "")

	assert.Nil(t, s.CustomerTime)
	assert.Equal(t, "UTC", s.BusinessTime.Timezone)
	require.NotNil(t, s.BusinessTime.DayOffset)
	assert.Equal(t, 0, *s.BusinessTime.DayOffset)
}
