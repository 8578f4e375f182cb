package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

type CalendarService interface {
	Get(ctx context.Context, userID, accountID int64) (*models.Calendar, error)
	Update(ctx context.Context, userID, accountID int64, req *transfer.CalendarUpdate) (*models.Calendar, error)
}

type calendarService struct {
	cr repository.CalendarRepository
	sa repository.SocialAccountRepository
}

func NewCalendarService(cr repository.CalendarRepository, sa repository.SocialAccountRepository) CalendarService {
	return &calendarService{
		cr: cr,
		sa: sa,
	}
}

func (s *calendarService) Get(ctx context.Context, userID, accountID int64) (*models.Calendar, error) {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	cal, found, err := s.cr.GetByAccountID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Info(ErrNoCalendar.Error(), "account_id", accountID)
		return nil, ErrNoCalendar
	}

	return cal, nil
}

// Update replaces the account's calendar. Posts already in the queue keep
// their instants.
func (s *calendarService) Update(ctx context.Context, userID, accountID int64, req *transfer.CalendarUpdate) (*models.Calendar, error) {
	if err := s.checkAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	cal := &models.Calendar{
		AccountID:     accountID,
		Days:          models.WeekSlots(req.Days),
		PostsPerDay:   req.PostsPerDay,
		MinGapMinutes: req.MinGapMinutes,
	}
	slots.NormalizeCalendar(cal)
	if err := slots.ValidateCalendar(cal); err != nil {
		slog.Info(err.Error(), "account_id", accountID)
		return nil, err
	}

	id, err := s.cr.Upsert(ctx, nil, cal)
	if err != nil {
		return nil, fmt.Errorf("saving calendar: %w", err)
	}
	cal.ID = id

	return cal, nil
}

func (s *calendarService) checkAccount(ctx context.Context, userID, accountID int64) error {
	ok, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
