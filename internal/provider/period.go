package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// PeriodUnit is the tenor component of a Period.
type PeriodUnit string

const (
	UnitMinute PeriodUnit = "min"
	UnitHour   PeriodUnit = "h"
	UnitDay    PeriodUnit = "d"
	UnitWeek   PeriodUnit = "w"
	UnitMonth  PeriodUnit = "M"
)

// Period is a bar interval or data horizon, e.g. "5min", "1h", "1d", "1w", "3M".
type Period struct {
	Units int
	Unit  PeriodUnit
}

var periodPattern = regexp.MustCompile(`^(\d+)(min|h|d|w|M)$`)

// ParsePeriod parses a tenor string into a Period.
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("invalid period %q (want e.g. 5min, 1h, 1d, 1w, 1M)", s)
	}

	units, err := strconv.Atoi(m[1])
	if err != nil || units <= 0 {
		return Period{}, fmt.Errorf("invalid period units in %q", s)
	}

	return Period{Units: units, Unit: PeriodUnit(m[2])}, nil
}

// MustPeriod parses a tenor string and panics on failure. For constants and tests.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) String() string {
	return fmt.Sprintf("%d%s", p.Units, p.Unit)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Units == 0
}

// Intraday reports whether the period is a sub-day interval.
func (p Period) Intraday() bool {
	return p.Unit == UnitMinute || p.Unit == UnitHour
}

// Duration converts the period to a wall-clock duration. Weeks count as seven
// days and months as thirty; calendar-exact arithmetic goes through ShiftBack.
func (p Period) Duration() time.Duration {
	n := time.Duration(p.Units)
	switch p.Unit {
	case UnitMinute:
		return n * time.Minute
	case UnitHour:
		return n * time.Hour
	case UnitDay:
		return n * 24 * time.Hour
	case UnitWeek:
		return n * 7 * 24 * time.Hour
	case UnitMonth:
		return n * 30 * 24 * time.Hour
	default:
		return 0
	}
}

// ShiftBack returns t minus the period, using calendar arithmetic for
// day/week/month tenors.
func (p Period) ShiftBack(t time.Time) time.Time {
	switch p.Unit {
	case UnitDay:
		return t.AddDate(0, 0, -p.Units)
	case UnitWeek:
		return t.AddDate(0, 0, -7*p.Units)
	case UnitMonth:
		return t.AddDate(0, -p.Units, 0)
	default:
		return t.Add(-p.Duration())
	}
}

// PointsBetween returns the number of bars of this period needed to cover
// (start, end], rounding up. A non-positive result means there is nothing to
// fetch.
func (p Period) PointsBetween(start, end time.Time) int {
	step := p.Duration()
	if step <= 0 {
		return 0
	}

	elapsed := end.Sub(start)
	if elapsed <= 0 {
		return 0
	}

	points := int(elapsed / step)
	if elapsed%step != 0 {
		points++
	}
	return points
}

// MarshalJSON encodes the period as its tenor string.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a tenor string.
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}

	*p = parsed
	return nil
}
