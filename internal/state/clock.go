package state

import "fmt"

// MinutesPerDay is the number of simulated minutes in one day.
const MinutesPerDay = 1440

// Weekday is the day of the week, with Monday as day zero.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// String returns the weekday name.
func (w Weekday) String() string {
	switch w {
	case Monday:
		return "Monday"
	case Tuesday:
		return "Tuesday"
	case Wednesday:
		return "Wednesday"
	case Thursday:
		return "Thursday"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	default:
		return "Unknown"
	}
}

// Clock tracks elapsed simulated minutes. Only the orchestrator advances it.
type Clock struct {
	Minute int `json:"minute"`
}

// Advance moves the clock forward by dt minutes. Negative steps are ignored.
func (c *Clock) Advance(dt int) {
	if dt > 0 {
		c.Minute += dt
	}
}

// Day returns the one-based simulated day.
func (c Clock) Day() int {
	return c.Minute/MinutesPerDay + 1
}

// Hour returns the hour of the current day.
func (c Clock) Hour() int {
	return (c.Minute % MinutesPerDay) / 60
}

// MinuteOfDay returns minutes elapsed since midnight of the current day.
func (c Clock) MinuteOfDay() int {
	return c.Minute % MinutesPerDay
}

// Weekday returns the day of the week. Day 1 is a Monday.
func (c Clock) Weekday() Weekday {
	return Weekday((c.Day() - 1) % 7)
}

// IsWeekend reports whether the current day is a Saturday or Sunday.
func (c Clock) IsWeekend() bool {
	w := c.Weekday()
	return w == Saturday || w == Sunday
}

// String formats the clock as "Day N HH:MM".
func (c Clock) String() string {
	m := c.MinuteOfDay()
	return fmt.Sprintf("Day %d %02d:%02d", c.Day(), m/60, m%60)
}
