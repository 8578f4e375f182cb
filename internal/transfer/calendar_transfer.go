package transfer

import "github.com/maheshrc27/postqueue/internal/models"

// CalendarUpdate replaces an account calendar wholesale. Days is indexed by
// weekday with Sunday first.
type CalendarUpdate struct {
	Days          [7][]models.Slot `json:"days" validate:"dive,dive"`
	PostsPerDay   int              `json:"posts_per_day" validate:"min=1,max=10"`
	MinGapMinutes int              `json:"min_gap_minutes" validate:"min=0,max=1440"`
}
