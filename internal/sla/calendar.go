package sla

import "time"

const (
	defaultOpenHour  = 9
	defaultCloseHour = 17
)

// Calendar converts SLA durations into deadlines. Business time runs from
// OpenHour to CloseHour, Monday to Friday, in Location, excluding holidays.
type Calendar struct {
	location  *time.Location
	openHour  int
	closeHour int
	holidays  map[string]struct{}
}

// CalendarOption customises a Calendar.
type CalendarOption func(*Calendar)

// WithLocation sets the zone business hours are evaluated in.
func WithLocation(loc *time.Location) CalendarOption {
	return func(c *Calendar) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithBusinessHours overrides the 09:00-17:00 window.
func WithBusinessHours(open, close int) CalendarOption {
	return func(c *Calendar) {
		if open >= 0 && close <= 24 && open < close {
			c.openHour = open
			c.closeHour = close
		}
	}
}

// WithHolidays marks whole days as closed. Only the date part is used.
func WithHolidays(days ...time.Time) CalendarOption {
	return func(c *Calendar) {
		for _, d := range days {
			c.holidays[d.Format(time.DateOnly)] = struct{}{}
		}
	}
}

// NewCalendar builds a calendar in the server's local zone with 09:00-17:00
// business hours unless overridden.
func NewCalendar(opts ...CalendarOption) *Calendar {
	c := &Calendar{
		location:  time.Local,
		openHour:  defaultOpenHour,
		closeHour: defaultCloseHour,
		holidays:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddDuration returns the deadline reached after consuming minutes from
// start. In wall-clock mode that is start plus minutes. In business-hours
// mode the clock first rolls forward to the next open instant and only
// open time is consumed.
func (c *Calendar) AddDuration(start time.Time, minutes int, businessHoursOnly bool) time.Time {
	if !businessHoursOnly {
		return start.Add(time.Duration(minutes) * time.Minute)
	}

	t := c.nextOpen(start.In(c.location))
	remaining := time.Duration(minutes) * time.Minute
	for remaining > 0 {
		closing := c.at(t, c.closeHour)
		chunk := closing.Sub(t)
		if chunk > remaining {
			chunk = remaining
		}
		t = t.Add(chunk)
		remaining -= chunk
		if remaining > 0 {
			t = c.nextOpen(closing)
		}
	}
	return t
}

// nextOpen returns t if it is inside business hours, otherwise the next
// opening instant.
func (c *Calendar) nextOpen(t time.Time) time.Time {
	for {
		switch {
		case !c.isBusinessDay(t):
			t = c.at(t.AddDate(0, 0, 1), c.openHour)
		case t.Before(c.at(t, c.openHour)):
			return c.at(t, c.openHour)
		case !t.Before(c.at(t, c.closeHour)):
			t = c.at(t.AddDate(0, 0, 1), c.openHour)
		default:
			return t
		}
	}
}

func (c *Calendar) isBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[t.Format(time.DateOnly)]
	return !holiday
}

func (c *Calendar) at(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, c.location)
}
