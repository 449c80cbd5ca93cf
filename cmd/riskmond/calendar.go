package main

import (
	"time"

	"github.com/scmhub/calendar"
)

// MarketCalendar answers whether monitoring should be active right now.
// Scoring itself never consults the calendar; this only gates the daemon's
// scheduled passes on trading days.
type MarketCalendar struct {
	location *time.Location
	nyse     *calendar.Calendar
}

func NewMarketCalendar(timezone string) *MarketCalendar {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &MarketCalendar{
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// IsTradingDay checks if the given time falls on a trading day (not
// weekend/holiday).
func (c *MarketCalendar) IsTradingDay(t time.Time) bool {
	return c.nyse.IsBusinessDay(t.In(c.location))
}

// Location returns the calendar's timezone location.
func (c *MarketCalendar) Location() *time.Location {
	return c.location
}
