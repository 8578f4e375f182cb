package models

import (
	"strings"
	"time"
)

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing" // claimed by a publisher, adapter call in flight
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

type Post struct {
	ID                  int64         `db:"id" json:"id"`
	UserID              int64         `db:"user_id" json:"user_id"`
	AccountID           int64         `db:"account_id" json:"account_id"`
	Content             string        `db:"content" json:"content"`
	Status              PostStatus    `db:"status" json:"status"`
	ScheduledTime       *time.Time    `db:"scheduled_time" json:"scheduled_time"`
	PublishedTime       *time.Time    `db:"published_time" json:"published_time"`
	ExternalPublishedID *string       `db:"external_published_id" json:"external_published_id"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
	Media               []*MediaAsset `db:"-" json:"media,omitempty"`
}

type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Kind classifies the asset by its MIME type. Anything that is neither an
// image nor a video is treated as a document.
func (m *MediaAsset) Kind() MediaKind {
	switch {
	case strings.HasPrefix(m.FileType, "image/"):
		return MediaKindImage
	case strings.HasPrefix(m.FileType, "video/"):
		return MediaKindVideo
	default:
		return MediaKindDocument
	}
}

type PostMedia struct {
	PostID       int64     `db:"post_id"`
	AssetID      int64     `db:"asset_id"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
}

// DuePost bundles everything the publisher needs to push one post.
type DuePost struct {
	Post    *Post
	Account *SocialAccount
	Media   []*MediaAsset
}
