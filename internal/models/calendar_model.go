package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

type Slot struct {
	Time   string `json:"time" validate:"required,hhmm"`
	Active bool   `json:"active"`
}

// WeekSlots holds the slots of each weekday, indexed by time.Weekday
// (0 = Sunday).
type WeekSlots [7][]Slot

func (w WeekSlots) Value() (driver.Value, error) {
	return json.Marshal(w)
}

func (w *WeekSlots) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*w = WeekSlots{}
		return nil
	default:
		return errors.New("week slots: unsupported column type")
	}
	return json.Unmarshal(data, w)
}

type Calendar struct {
	ID            int64     `db:"id" json:"id"`
	AccountID     int64     `db:"account_id" json:"account_id"`
	Days          WeekSlots `db:"days" json:"days"`
	PostsPerDay   int       `db:"posts_per_day" json:"posts_per_day"`
	MinGapMinutes int       `db:"min_gap_minutes" json:"min_gap_minutes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveSlots returns the active slot times of a weekday in ascending order.
func (c *Calendar) ActiveSlots(day time.Weekday) []string {
	var times []string
	for _, s := range c.Days[day] {
		if s.Active {
			times = append(times, s.Time)
		}
	}
	sort.Strings(times)
	return times
}

// SortSlots orders every day's slots by time of day.
func (c *Calendar) SortSlots() {
	for d := range c.Days {
		sort.SliceStable(c.Days[d], func(i, j int) bool {
			return c.Days[d][i].Time < c.Days[d][j].Time
		})
	}
}

const (
	DefaultPostsPerDay   = 3
	DefaultMinGapMinutes = 150
)

// DefaultCalendar is the calendar given to a freshly linked account.
func DefaultCalendar(accountID int64) *Calendar {
	weekday := []Slot{{Time: "08:00", Active: true}, {Time: "10:30", Active: true}, {Time: "17:00", Active: true}}
	friday := []Slot{{Time: "08:00", Active: true}, {Time: "10:30", Active: true}, {Time: "15:00", Active: true}}
	weekend := []Slot{{Time: "11:00", Active: true}, {Time: "15:00", Active: true}}

	var days WeekSlots
	days[time.Sunday] = weekend
	days[time.Monday] = weekday
	days[time.Tuesday] = append([]Slot(nil), weekday...)
	days[time.Wednesday] = append([]Slot(nil), weekday...)
	days[time.Thursday] = append([]Slot(nil), weekday...)
	days[time.Friday] = friday
	days[time.Saturday] = append([]Slot(nil), weekend...)

	return &Calendar{
		AccountID:     accountID,
		Days:          days,
		PostsPerDay:   DefaultPostsPerDay,
		MinGapMinutes: DefaultMinGapMinutes,
	}
}
