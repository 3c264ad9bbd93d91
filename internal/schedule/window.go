// Package schedule turns schedule rules and time slots into a resolved,
// conflict-free playout timeline for one screen.
package schedule

import (
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

const MinutesPerDay = 24 * 60

// Window is a same-day time-of-day window in minutes, end exclusive.
type Window struct {
	Start int
	End   int
}

// ParseClock parses "HH:MM" into a minute of day. "24:00" parses to 1440
// so that a window can run to the end of the day.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || h > 24 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseWindow parses a start/end pair and checks start < end within one day.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if s >= MinutesPerDay {
		return Window{}, fmt.Errorf("start time %q must be before 24:00", start)
	}
	if s >= e {
		return Window{}, fmt.Errorf("start time %q must be before end time %q", start, end)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// Overlaps reports whether a and b share at least one minute.
func Overlaps(a, b Window) bool {
	return a.Start < b.End && b.Start < a.End
}

// Activation is a rule's activation window; Until nil means open-ended.
type Activation struct {
	From  time.Time
	Until *time.Time
}

func ActivationOf(rule model.ScheduleRule) Activation {
	return Activation{From: rule.ActiveFrom, Until: rule.ActiveUntil}
}

// Covers reports From <= t <= Until.
func (a Activation) Covers(t time.Time) bool {
	if t.Before(a.From) {
		return false
	}
	return a.Until == nil || !t.After(*a.Until)
}

// Intersects reports whether the activation window shares any instant with [from, to).
func (a Activation) Intersects(from, to time.Time) bool {
	if !a.From.Before(to) {
		return false
	}
	return a.Until == nil || !a.Until.Before(from)
}

func (a Activation) overlapsActivation(b Activation) bool {
	if a.Until != nil && a.Until.Before(b.From) {
		return false
	}
	if b.Until != nil && b.Until.Before(a.From) {
		return false
	}
	return true
}

// clip trims [start, end) to the activation window.
func (a Activation) clip(start, end time.Time) (time.Time, time.Time, bool) {
	if start.Before(a.From) {
		start = a.From
	}
	if a.Until != nil && end.After(*a.Until) {
		end = *a.Until
	}
	return start, end, start.Before(end)
}

// Weekday returns the Monday-first weekday of t (0=Monday..6=Sunday).
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// matchesDay is the recurrence predicate of a slot for a calendar day.
func matchesDay(rule model.ScheduleRule, slot model.TimeSlot, day time.Time) bool {
	switch rule.RuleType {
	case model.RuleWeekly:
		return slot.DayOfWeek != nil && *slot.DayOfWeek == Weekday(day)
	case model.RuleDaily, model.RuleDateRange:
		return true
	}
	return false
}

// Horizon is the half-open interval [From, To) a timeline is resolved over.
type Horizon struct {
	From time.Time
	To   time.Time
}

// NewHorizon anchors a horizon of the given number of days at the start of
// now's calendar day in loc.
func NewHorizon(now time.Time, loc *time.Location, days int) Horizon {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Horizon{From: from, To: from.AddDate(0, 0, days)}
}

// days lists the start of every calendar day touching the horizon, in the
// horizon's location.
func (h Horizon) days() []time.Time {
	loc := h.From.Location()
	first := time.Date(h.From.Year(), h.From.Month(), h.From.Day(), 0, 0, 0, 0, loc)
	var out []time.Time
	for d := first; d.Before(h.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// at returns the instant minute minutes after midnight of day.
func at(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}
