package market

import (
	"fmt"
	"time"
)

// venueSession describes one venue's timezone and regular session hours.
type venueSession struct {
	zone            string
	openHour        int
	openMinute      int
	closeHour       int
	closeMinute     int
}

var venues = map[string]venueSession{
	"NYSE":   {zone: "America/New_York", openHour: 9, openMinute: 30, closeHour: 16},
	"NASDAQ": {zone: "America/New_York", openHour: 9, openMinute: 30, closeHour: 16},
	"LSE":    {zone: "Europe/London", openHour: 8, closeHour: 16, closeMinute: 30},
	"XETRA":  {zone: "Europe/Berlin", openHour: 9, closeHour: 17, closeMinute: 30},
	"TSE":    {zone: "Asia/Tokyo", openHour: 9, closeHour: 15},
	"HKEX":   {zone: "Asia/Hong_Kong", openHour: 9, openMinute: 30, closeHour: 16},
}

// Calendar resolves a venue identifier into its timezone and regular trading
// session. Public holidays are not modeled; the session covers weekdays only.
type Calendar struct {
	venue   string
	session venueSession
	loc     *time.Location
}

// NewCalendar creates a calendar for a known venue identifier such as "NYSE".
func NewCalendar(venue string) (*Calendar, error) {
	session, ok := venues[venue]
	if !ok {
		return nil, fmt.Errorf("unknown market venue %q", venue)
	}

	loc, err := time.LoadLocation(session.zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone for venue %q: %w", venue, err)
	}

	return &Calendar{venue: venue, session: session, loc: loc}, nil
}

// Venue returns the venue identifier.
func (c *Calendar) Venue() string { return c.venue }

// Location returns the venue's timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// SessionOpen returns the session open on t's trading day, in venue time.
func (c *Calendar) SessionOpen(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		c.session.openHour, c.session.openMinute, 0, 0, c.loc)
}

// SessionClose returns the session close on t's trading day, in venue time.
func (c *Calendar) SessionClose(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		c.session.closeHour, c.session.closeMinute, 0, 0, c.loc)
}

// IsOpen reports whether the venue's regular session is in progress at t.
func (c *Calendar) IsOpen(t time.Time) bool {
	local := t.In(c.loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return !local.Before(c.SessionOpen(local)) && local.Before(c.SessionClose(local))
}
