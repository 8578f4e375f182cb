package slots

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

// HorizonDays is how many local calendar days, starting with the day of the
// reference instant, the resolver looks at before giving up.
const HorizonDays = 14

const (
	MinPostsPerDay = 1
	MaxPostsPerDay = 10
	MaxGapMinutes  = 1440
)

var ErrInvalidCalendar = errors.New("invalid calendar")

// Resolve returns the earliest slot instant strictly after from that keeps at
// least MinGapMinutes away from every instant in scheduled and leaves the
// local calendar date below PostsPerDay. It is a pure function of its inputs.
func Resolve(cal *models.Calendar, loc *time.Location, scheduled []time.Time, from time.Time) (time.Time, bool) {
	if cal == nil {
		return time.Time{}, false
	}
	gap := time.Duration(cal.MinGapMinutes) * time.Minute

	for k := 0; k < HorizonDays; k++ {
		day := StartOfLocalDay(from, k, loc)
		times := cal.ActiveSlots(day.Weekday())
		if len(times) == 0 {
			continue
		}
		if countOnDay(scheduled, day, loc) >= cal.PostsPerDay {
			continue
		}

		for _, candidate := range dayCandidates(day, times, loc) {
			if !candidate.After(from) || conflicts(candidate, scheduled, gap) {
				continue
			}
			return candidate, true
		}
	}
	return time.Time{}, false
}

// Fits reports whether an explicitly chosen instant keeps the gap to every
// instant in scheduled and leaves room under the daily cap of its local date.
// A nil calendar imposes no limits.
func Fits(cal *models.Calendar, loc *time.Location, scheduled []time.Time, at time.Time) bool {
	if cal == nil {
		return true
	}
	gap := time.Duration(cal.MinGapMinutes) * time.Minute
	if conflicts(at, scheduled, gap) {
		return false
	}
	return countOnDay(scheduled, at, loc) < cal.PostsPerDay
}

func dayCandidates(day time.Time, times []string, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(times))
	for _, hhmm := range times {
		t, err := LocalInstant(day, hhmm, loc)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func conflicts(candidate time.Time, scheduled []time.Time, gap time.Duration) bool {
	for _, s := range scheduled {
		d := candidate.Sub(s)
		if d < 0 {
			d = -d
		}
		if d < gap {
			return true
		}
	}
	return false
}

func countOnDay(scheduled []time.Time, day time.Time, loc *time.Location) int {
	n := 0
	for _, s := range scheduled {
		if SameLocalDay(s, day, loc) {
			n++
		}
	}
	return n
}

// ValidateCalendar checks limits, slot formats and duplicate active slots.
func ValidateCalendar(cal *models.Calendar) error {
	if cal.PostsPerDay < MinPostsPerDay || cal.PostsPerDay > MaxPostsPerDay {
		return fmt.Errorf("%w: posts per day must be between %d and %d", ErrInvalidCalendar, MinPostsPerDay, MaxPostsPerDay)
	}
	if cal.MinGapMinutes < 0 || cal.MinGapMinutes > MaxGapMinutes {
		return fmt.Errorf("%w: minimum gap must be between 0 and %d minutes", ErrInvalidCalendar, MaxGapMinutes)
	}

	for d, day := range cal.Days {
		seen := make(map[string]bool, len(day))
		for _, s := range day {
			h, m, err := ParseTimeOfDay(s.Time)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidCalendar, time.Weekday(d), err)
			}
			if !s.Active {
				continue
			}
			key := fmt.Sprintf("%02d:%02d", h, m)
			if seen[key] {
				return fmt.Errorf("%w: duplicate time slot %s on %s", ErrInvalidCalendar, key, time.Weekday(d))
			}
			seen[key] = true
		}
	}
	return nil
}

// NormalizeCalendar rewrites slot times as zero-padded HH:mm and sorts each
// day so that lexical order matches chronological order.
func NormalizeCalendar(cal *models.Calendar) {
	for d := range cal.Days {
		for i, s := range cal.Days[d] {
			if h, m, err := ParseTimeOfDay(s.Time); err == nil {
				cal.Days[d][i].Time = fmt.Sprintf("%02d:%02d", h, m)
			}
		}
	}
	cal.SortSlots()
}
