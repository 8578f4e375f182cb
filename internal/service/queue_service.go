package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/internal/validation"
)

type QueueService interface {
	Enqueue(ctx context.Context, userID, postID int64) (*models.QueueEntry, error)
	Shuffle(ctx context.Context, userID, accountID int64) ([]*models.QueueEntry, error)
	List(ctx context.Context, userID, accountID int64) ([]*transfer.QueueItem, error)
	NextSlot(ctx context.Context, userID, accountID int64) (time.Time, error)
	Unschedule(ctx context.Context, userID, postID int64) error
}

type queueService struct {
	tx repository.Transactor
	pr repository.PostRepository
	qr repository.QueueRepository
	cr repository.CalendarRepository
	sa repository.SocialAccountRepository
	ma repository.MediaAssetRepository
	lc LifecycleService

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

func NewQueueService(
	tx repository.Transactor,
	pr repository.PostRepository,
	qr repository.QueueRepository,
	cr repository.CalendarRepository,
	sa repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	lc LifecycleService) QueueService {
	return &queueService{
		tx:      tx,
		pr:      pr,
		qr:      qr,
		cr:      cr,
		sa:      sa,
		ma:      ma,
		lc:      lc,
		now:     time.Now,
		shuffle: rand.Shuffle,
	}
}

// Enqueue places a draft in the next free calendar slot of its account. The
// account row stays locked for the whole transaction so two enqueues for the
// same account never pick the same slot.
func (s *queueService) Enqueue(ctx context.Context, userID, postID int64) (*models.QueueEntry, error) {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, ErrNotDraft
	}

	media, err := s.ma.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePost(post.Content, media); err != nil {
		slog.Info(err.Error(), "post_id", post.ID)
		return nil, err
	}

	var entry *models.QueueEntry
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		account, loc, err := lockAccount(ctx, tx, s.sa, post.AccountID)
		if err != nil {
			return err
		}

		cal, found, err := s.cr.GetByAccountID(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNoCalendar
		}

		now := s.now()
		at, err := s.resolve(ctx, tx, cal, loc, now)
		if err != nil {
			return err
		}

		entry, err = s.lc.Schedule(ctx, tx, post, at, fmt.Sprintf("Post scheduled for %s", at.In(loc).Format(time.RFC3339)))
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyQueued
		}
		return nil, err
	}

	slog.Info("post enqueued", "post_id", post.ID, "account_id", post.AccountID, "scheduled_for", entry.ScheduledFor)
	return entry, nil
}

func (s *queueService) resolve(ctx context.Context, tx *sql.Tx, cal *models.Calendar, loc *time.Location, now time.Time) (time.Time, error) {
	// Only posts still ahead of now hold a slot. Overdue and published posts
	// are ignored so the answer does not depend on when the publisher ran.
	taken, err := s.pr.ListScheduledTimes(ctx, tx, cal.AccountID, now)
	if err != nil {
		return time.Time{}, err
	}

	at, ok := slots.Resolve(cal, loc, taken, now)
	if !ok {
		return time.Time{}, ErrNoSlotAvailable
	}
	return at, nil
}

// Shuffle randomly reassigns the account's scheduled instants among its queued
// posts. The set of instants is unchanged, so calendar limits are not checked
// again.
func (s *queueService) Shuffle(ctx context.Context, userID, accountID int64) ([]*models.QueueEntry, error) {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	var shuffled []*models.QueueEntry
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := lockAccount(ctx, tx, s.sa, accountID); err != nil {
			return err
		}

		entries, err := s.qr.ListByAccountID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if len(entries) < 2 {
			return ErrInsufficientEntries
		}

		times := make([]time.Time, len(entries))
		for i, e := range entries {
			times[i] = e.ScheduledFor
		}
		s.shuffle(len(times), func(i, j int) {
			times[i], times[j] = times[j], times[i]
		})

		type assignment struct {
			entry *models.QueueEntry
			at    time.Time
		}
		assigned := make([]assignment, len(entries))
		for i, e := range entries {
			assigned[i] = assignment{entry: e, at: times[i]}
		}
		sort.SliceStable(assigned, func(i, j int) bool {
			return assigned[i].at.Before(assigned[j].at)
		})

		for i, a := range assigned {
			order := i + 1
			if err := s.qr.Update(ctx, tx, a.entry.ID, order, a.at); err != nil {
				return err
			}
			if !a.at.Equal(a.entry.ScheduledFor) {
				msg := fmt.Sprintf("Post rescheduled to %s during queue shuffle", a.at.Format(time.RFC3339))
				if err := s.lc.Reschedule(ctx, tx, a.entry.PostID, a.at, msg); err != nil {
					return err
				}
			}
			shuffled = append(shuffled, &models.QueueEntry{
				ID:           a.entry.ID,
				AccountID:    a.entry.AccountID,
				PostID:       a.entry.PostID,
				Order:        order,
				ScheduledFor: a.at,
				CreatedAt:    a.entry.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("queue shuffled", "account_id", accountID, "entries", len(shuffled))
	return shuffled, nil
}

func (s *queueService) List(ctx context.Context, userID, accountID int64) ([]*transfer.QueueItem, error) {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	entries, err := s.qr.ListByAccountID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]*transfer.QueueItem, 0, len(entries))
	for _, e := range entries {
		item := &transfer.QueueItem{
			EntryID:      e.ID,
			PostID:       e.PostID,
			Order:        e.Order,
			ScheduledFor: e.ScheduledFor,
			TimeUntil:    slots.TimeUntil(e.ScheduledFor, now),
		}
		post, err := s.pr.GetByID(ctx, nil, e.PostID)
		if err != nil {
			return nil, err
		}
		if post != nil {
			item.Content = post.Content
		}
		items = append(items, item)
	}
	return items, nil
}

// NextSlot previews where the next enqueue for the account would land.
func (s *queueService) NextSlot(ctx context.Context, userID, accountID int64) (time.Time, error) {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return time.Time{}, err
	}

	account, err := s.sa.GetByID(ctx, nil, accountID)
	if err != nil {
		return time.Time{}, err
	}
	if account == nil {
		return time.Time{}, ErrNotFound
	}
	loc, err := slots.LoadLocation(account.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}

	cal, found, err := s.cr.GetByAccountID(ctx, nil, accountID)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return time.Time{}, ErrNoCalendar
	}

	return s.resolve(ctx, nil, cal, loc, s.now())
}

func (s *queueService) Unschedule(ctx context.Context, userID, postID int64) error {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusScheduled {
		return ErrNotScheduled
	}

	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := lockAccount(ctx, tx, s.sa, post.AccountID); err != nil {
			return err
		}
		return s.lc.Unschedule(ctx, tx, post)
	})
}

func (s *queueService) checkAccount(ctx context.Context, userID, accountID int64) error {
	ok, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func ownedPost(ctx context.Context, pr repository.PostRepository, userID, postID int64) (*models.Post, error) {
	post, err := pr.GetByID(ctx, nil, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}
	return post, nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, sa repository.SocialAccountRepository, accountID int64) (*models.SocialAccount, *time.Location, error) {
	account, err := sa.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrNotFound
	}
	loc, err := slots.LoadLocation(account.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	return account, loc, nil
}
