package models

import "time"

type QueueEntry struct {
	ID           int64     `db:"id" json:"id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	Order        int       `db:"queue_order" json:"order"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
