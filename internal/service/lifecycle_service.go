package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/lifecycle"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
)

// LifecycleService applies post status transitions. Each transition updates
// the post with a compare-and-swap on its current status, adds or removes the
// queue entry it implies and appends one log entry, all in one transaction.
type LifecycleService interface {
	Schedule(ctx context.Context, tx *sql.Tx, post *models.Post, at time.Time, message string) (*models.QueueEntry, error)
	Reschedule(ctx context.Context, tx *sql.Tx, postID int64, at time.Time, message string) error
	Unschedule(ctx context.Context, tx *sql.Tx, post *models.Post) error
	Claim(ctx context.Context, postID int64, from models.PostStatus) (bool, error)
	Fail(ctx context.Context, postID int64, from models.PostStatus, message string) (bool, error)
	MarkPublished(ctx context.Context, postID int64, externalID string, at time.Time) error
	Log(ctx context.Context, tx *sql.Tx, postID int64, status models.LogStatus, message string) error
}

type lifecycleService struct {
	tx repository.Transactor
	pr repository.PostRepository
	qr repository.QueueRepository
	lr repository.PostLogRepository
}

func NewLifecycleService(
	tx repository.Transactor,
	pr repository.PostRepository,
	qr repository.QueueRepository,
	lr repository.PostLogRepository) LifecycleService {
	return &lifecycleService{
		tx: tx,
		pr: pr,
		qr: qr,
		lr: lr,
	}
}

func (s *lifecycleService) transition(ctx context.Context, tx *sql.Tx, postID int64, from, to models.PostStatus, upd repository.StatusUpdate, message string) (bool, error) {
	if err := lifecycle.Check(from, to); err != nil {
		slog.Error(err.Error(), "post_id", postID)
		return false, err
	}

	ok, err := s.pr.SetStatus(ctx, tx, postID, from, to, upd)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if lifecycle.LeavesQueue(from, to) {
		if err := s.qr.RemoveByPostID(ctx, tx, postID); err != nil {
			return false, err
		}
	}

	if err := s.Log(ctx, tx, postID, lifecycle.LogStatus(to), message); err != nil {
		return false, err
	}
	return true, nil
}

func (s *lifecycleService) Schedule(ctx context.Context, tx *sql.Tx, post *models.Post, at time.Time, message string) (*models.QueueEntry, error) {
	ok, err := s.transition(ctx, tx, post.ID, post.Status, models.PostStatusScheduled, repository.StatusUpdate{ScheduledTime: &at}, message)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}

	entry := &models.QueueEntry{
		AccountID:    post.AccountID,
		PostID:       post.ID,
		ScheduledFor: at,
	}
	if _, err := s.qr.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledTime = &at
	return entry, nil
}

// Reschedule moves a post that stays scheduled to a new instant. The caller
// owns the queue entry update.
func (s *lifecycleService) Reschedule(ctx context.Context, tx *sql.Tx, postID int64, at time.Time, message string) error {
	ok, err := s.pr.SetStatus(ctx, tx, postID, models.PostStatusScheduled, models.PostStatusScheduled, repository.StatusUpdate{ScheduledTime: &at})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrentUpdate
	}
	return s.Log(ctx, tx, postID, models.LogScheduled, message)
}

func (s *lifecycleService) Unschedule(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	ok, err := s.transition(ctx, tx, post.ID, post.Status, models.PostStatusDraft, repository.StatusUpdate{ClearSchedule: true}, "Post removed from queue")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrentUpdate
	}
	post.Status = models.PostStatusDraft
	post.ScheduledTime = nil
	return nil
}

// Claim marks a post as being published. It reports false when the post is
// no longer in from, which means someone else owns it.
func (s *lifecycleService) Claim(ctx context.Context, postID int64, from models.PostStatus) (bool, error) {
	var claimed bool
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		claimed, err = s.transition(ctx, tx, postID, from, models.PostStatusPublishing, repository.StatusUpdate{}, "Publishing started")
		return err
	})
	return claimed, err
}

func (s *lifecycleService) Fail(ctx context.Context, postID int64, from models.PostStatus, message string) (bool, error) {
	var failed bool
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		failed, err = s.transition(ctx, tx, postID, from, models.PostStatusFailed, repository.StatusUpdate{}, message)
		return err
	})
	return failed, err
}

func (s *lifecycleService) MarkPublished(ctx context.Context, postID int64, externalID string, at time.Time) error {
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		upd := repository.StatusUpdate{PublishedTime: &at, ExternalPublishedID: &externalID}
		message := fmt.Sprintf("Post published successfully on LinkedIn. Post ID: %s", externalID)
		ok, err := s.transition(ctx, tx, postID, models.PostStatusPublishing, models.PostStatusPublished, upd, message)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		return nil
	})
}

func (s *lifecycleService) Log(ctx context.Context, tx *sql.Tx, postID int64, status models.LogStatus, message string) error {
	_, err := s.lr.Create(ctx, tx, &models.PostLog{
		PostID:  postID,
		Status:  status,
		Message: message,
	})
	return err
}
