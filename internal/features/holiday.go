package features

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// usHolidays answers whether a date is a US federal holiday. Observed dates
// (e.g. July 4th falling on a weekend) count as holidays too, matching how
// airline schedules shift around them.
type usHolidays struct {
	cal *cal.Calendar
}

func holidayCalendar() *usHolidays {
	c := &cal.Calendar{Name: "US federal holidays"}
	c.AddHoliday(us.Holidays...)
	return &usHolidays{cal: c}
}

func (h *usHolidays) isHoliday(date time.Time) bool {
	actual, observed, _ := h.cal.IsHoliday(date)
	return actual || observed
}
