package models

import "time"

type LogStatus string

const (
	LogDraftCreated LogStatus = "DRAFT_CREATED"
	LogDraftUpdated LogStatus = "DRAFT_UPDATED"
	LogScheduled    LogStatus = "SCHEDULED"
	LogUnscheduled  LogStatus = "UNSCHEDULED"
	LogPublishing   LogStatus = "PUBLISHING"
	LogPublished    LogStatus = "PUBLISHED"
	LogFailed       LogStatus = "FAILED"
)

// PostLog is an append-only audit record of something that happened to a post.
type PostLog struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	Status    LogStatus `db:"status" json:"status"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}
