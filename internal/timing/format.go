// internal/timing/format.go
package timing

import (
	"fmt"
	"time"

	"github.com/textloop/textloop-backend/internal/timezone"
)

// ZoneTime is one zone-local view of a send time. DayOffset is only set on
// the business block.
type ZoneTime struct {
	Date      string `json:"date"` // 2006-01-02
	Time      string `json:"time"` // 3:04 PM
	DayOffset *int   `json:"day_offset,omitempty"`
	Display   string `json:"display"`
	Timezone  string `json:"timezone"`
}

// Schedule is the display record persisted alongside a scheduled message.
type Schedule struct {
	BusinessTime ZoneTime  `json:"business_time"`
	CustomerTime *ZoneTime `json:"customer_time,omitempty"`
}

// Format renders a UTC send time for display in the business zone and,
// when customerZone is non-empty, the customer's zone as well.
func (p *Parser) Format(sendUTC time.Time, businessZone, customerZone string) Schedule {
	offset := calendarDayOffset(p.now(), sendUTC, businessZone)
	if offset < 0 {
		offset = 0
	}

	s := Schedule{BusinessTime: zoneTime(sendUTC, businessZone)}
	s.BusinessTime.DayOffset = &offset

	if customerZone != "" {
		ct := zoneTime(sendUTC, customerZone)
		s.CustomerTime = &ct
	}
	return s
}

func zoneTime(sendUTC time.Time, zone string) ZoneTime {
	local := sendUTC.In(timezone.Resolve(zone))
	if zone == "" {
		zone = "UTC"
	}
	return ZoneTime{
		Date:     local.Format("2006-01-02"),
		Time:     local.Format("3:04 PM"),
		Display:  fmt.Sprintf("%s at %s (%s)", local.Format("Monday, January 2"), local.Format("3:04 PM"), zone),
		Timezone: zone,
	}
}

// calendarDayOffset counts whole calendar days between now and the send time
// as seen in zone. It is a date difference, not an elapsed-hours difference:
// 11 PM today to 1 AM tomorrow is one day.
func calendarDayOffset(now, sendUTC time.Time, zone string) int {
	loc := timezone.Resolve(zone)
	nowLocal := now.In(loc)
	sendLocal := sendUTC.In(loc)

	// Compare dates on a fixed clock to stay DST-proof.
	nowDate := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	sendDate := time.Date(sendLocal.Year(), sendLocal.Month(), sendLocal.Day(), 0, 0, 0, 0, time.UTC)
	return int(sendDate.Sub(nowDate).Hours() / 24)
}
