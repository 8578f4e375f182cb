// Package lifecycle holds the post status transition table.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/postqueue/internal/models"
)

var ErrInvalidTransition = errors.New("invalid post status transition")

var transitions = map[models.PostStatus][]models.PostStatus{
	models.PostStatusDraft: {
		models.PostStatusScheduled,
		models.PostStatusPublishing,
	},
	models.PostStatusScheduled: {
		models.PostStatusDraft,
		models.PostStatusPublishing,
		models.PostStatusFailed,
	},
	models.PostStatusPublishing: {
		models.PostStatusPublished,
		models.PostStatusFailed,
	},
	models.PostStatusPublished: nil,
	models.PostStatusFailed:    nil,
}

func Allowed(from, to models.PostStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidTransition, wrapped with both states, unless the
// table allows from -> to.
func Check(from, to models.PostStatus) error {
	if !from.Valid() || !to.Valid() || !Allowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Targets lists the statuses reachable from s in one step.
func Targets(s models.PostStatus) []models.PostStatus {
	return append([]models.PostStatus(nil), transitions[s]...)
}

// LogStatus is the audit event recorded when a post enters to.
func LogStatus(to models.PostStatus) models.LogStatus {
	switch to {
	case models.PostStatusDraft:
		return models.LogUnscheduled
	case models.PostStatusScheduled:
		return models.LogScheduled
	case models.PostStatusPublishing:
		return models.LogPublishing
	case models.PostStatusPublished:
		return models.LogPublished
	default:
		return models.LogFailed
	}
}

// LeavesQueue reports whether moving from -> to removes the post's queue entry.
func LeavesQueue(from, to models.PostStatus) bool {
	return from == models.PostStatusScheduled && to != models.PostStatusScheduled
}

// EntersQueue reports whether moving from -> to creates a queue entry.
func EntersQueue(from, to models.PostStatus) bool {
	return to == models.PostStatusScheduled && from != models.PostStatusScheduled
}
