package service

import (
	"errors"

	"github.com/maheshrc27/postqueue/internal/lifecycle"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/validation"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNotDraft            = errors.New("post is not a draft")
	ErrNotScheduled        = errors.New("post is not scheduled")
	ErrNotFailed           = errors.New("post has not failed")
	ErrNoCalendar          = errors.New("account has no posting calendar")
	ErrNoSlotAvailable     = errors.New("no free slot in the next 14 days")
	ErrInsufficientEntries = errors.New("queue needs at least two posts to shuffle")
	ErrEntitlementInactive = errors.New("entitlement inactive (user subscription is not active)")
	ErrPublishAdapter      = errors.New("publish adapter error")
	ErrScheduleInPast      = errors.New("scheduled time must be in the future")
	ErrSlotConflict        = errors.New("scheduled time breaks the calendar's gap or daily limit")
	ErrInvalidTimezone     = errors.New("invalid time zone")
	ErrInvalidState        = errors.New("invalid or expired oauth state")
	ErrConcurrentUpdate    = errors.New("post was changed concurrently")
	ErrTokenExpired        = errors.New("LinkedIn token has expired. Please reconnect your account.")
	ErrAlreadyQueued       = errors.New("post is already queued")
	ErrPostPublishing      = errors.New("post is being published")
	ErrInvalidStatus       = errors.New("unknown post status")
)

// Re-exported so callers only need this package to classify errors.
var (
	ErrInvalidCalendar              = slots.ErrInvalidCalendar
	ErrInvalidContent               = validation.ErrInvalidContent
	ErrInvalidMedia                 = validation.ErrInvalidMedia
	ErrIncompatibleMediaCombination = validation.ErrIncompatibleMediaCombination
	ErrInvalidTransition            = lifecycle.ErrInvalidTransition
)
