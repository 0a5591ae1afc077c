// Package schedule resolves calendar node routing decisions.
//
// Resolve is pure and total: no I/O, no mutation, and it always returns a
// port, never an error. The interpreter calls it synchronously at decision
// time without failure handling.
package schedule

import (
	"time"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

// Resolve converts the reference instant to the calendar's timezone and
// returns the output port of the first matching event in declared order
// (declaration order is priority). If no event matches, the synthetic
// default port is returned.
//
// An unknown timezone falls back to UTC; malformed event fields make that
// event non-matching rather than failing the call.
func Resolve(cal *flow.CalendarContent, at time.Time) string {
	if cal == nil {
		return flow.PortDefault
	}
	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := at.In(loc)
	for i := range cal.Events {
		if Matches(&cal.Events[i], local) {
			return flow.EventPortID(cal.Events[i].ID)
		}
	}
	return flow.PortDefault
}

// Matches reports whether the event covers the given local time.
func Matches(ev *flow.Event, local time.Time) bool {
	if ev == nil {
		return false
	}
	if ev.Recurring {
		return matchesRecurring(ev, local)
	}
	return matchesRange(ev, local)
}

func matchesRecurring(ev *flow.Event, local time.Time) bool {
	if !weekdayInSet(ev.Weekdays, local.Weekday()) {
		return false
	}
	return clockWindowContains(ev.StartTime, ev.EndTime, local)
}

func matchesRange(ev *flow.Event, local time.Time) bool {
	start, ok := parseDate(ev.StartDate)
	if !ok {
		return false
	}
	end, ok := parseDate(ev.EndDate)
	if !ok {
		return false
	}
	day := local.Year()*10000 + int(local.Month())*100 + local.Day()
	if day < start || day > end {
		return false
	}
	if ev.AllDay {
		return true
	}
	return clockWindowContains(ev.StartTime, ev.EndTime, local)
}

// clockWindowContains checks [start, end) against the local time of day.
// A window whose end is not after its start never matches: overnight
// (midnight-crossing) windows are not supported.
func clockWindowContains(startStr, endStr string, local time.Time) bool {
	start, ok := parseClock(startStr)
	if !ok {
		return false
	}
	end, ok := parseClock(endStr)
	if !ok {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute < end
}

// parseClock parses "15:04" into minutes since midnight.
func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h, ok := atoi2(s[0], s[1])
	if !ok || h > 23 {
		return 0, false
	}
	m, ok := atoi2(s[3], s[4])
	if !ok || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// parseDate parses "2006-01-02" into a comparable yyyymmdd ordinal.
func parseDate(s string) (int, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, false
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day(), true
}

func atoi2(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

func weekdayInSet(names []string, day time.Weekday) bool {
	for _, name := range names {
		if wd, ok := weekdayNames[name]; ok && wd == day {
			return true
		}
	}
	return false
}
