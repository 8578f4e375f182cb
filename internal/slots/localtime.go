// Package slots turns a weekly posting calendar into concrete instants and
// picks the next free one for a post.
//
// All wall-clock arithmetic goes through the helpers in this file so that
// daylight saving transitions are handled by the time zone database rather
// than by fixed offsets.
package slots

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeOfDay = errors.New("time of day must be HH:mm")

var timeOfDayRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeOfDay reports whether s is a 24h "HH:mm" (or "H:mm") time.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}

func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if !ValidTimeOfDay(s) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, m, _ := strings.Cut(s, ":")
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	return hour, minute, nil
}

// LoadLocation resolves an IANA zone name. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

// LocalInstant returns the absolute instant at which the wall clock in loc
// reads hhmm on the local calendar date of day.
func LocalInstant(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

// StartOfLocalDay returns local midnight n calendar days after t's local date.
// n may be negative.
func StartOfLocalDay(t time.Time, n int, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, loc)
}

func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// IsDue reports whether a post scheduled at scheduled should be published at
// now. Both are absolute instants, so the zone only matters for callers that
// persist local wall-clock values.
func IsDue(scheduled, now time.Time, loc *time.Location) bool {
	return !scheduled.In(loc).After(now.In(loc))
}

// TimeUntil renders the distance from now to t as a short human label.
func TimeUntil(t, now time.Time) string {
	diff := t.Sub(now)
	switch {
	case diff >= 24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	case diff >= time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff >= time.Minute:
		return plural(int(diff/time.Minute), "minute")
	default:
		return "Less than a minute"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s from now", unit)
	}
	return fmt.Sprintf("%d %ss from now", n, unit)
}
