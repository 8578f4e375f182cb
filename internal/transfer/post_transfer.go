package transfer

import "time"

type DraftRequest struct {
	AccountID int64  `json:"account_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,max=3000"`
}

type ScheduleRequest struct {
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
}

type TimezoneUpdate struct {
	Timezone string `json:"timezone" validate:"required,timezone"`
}

type QueueItem struct {
	EntryID      int64     `json:"entry_id"`
	PostID       int64     `json:"post_id"`
	Order        int       `json:"order"`
	ScheduledFor time.Time `json:"scheduled_for"`
	TimeUntil    string    `json:"time_until"`
	Content      string    `json:"content"`
}

type PendingPost struct {
	PostID        int64     `json:"post_id"`
	UserID        int64     `json:"user_id"`
	AccountID     int64     `json:"account_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	TimeUntil     string    `json:"time_until"`
}
