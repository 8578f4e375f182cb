package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

type SubscriptionService interface {
	HandleSubscription(ctx context.Context, payload *transfer.SubscriptionEvent) error
	IsActive(ctx context.Context, userID int64) (bool, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	u repository.UserRepository
	s repository.SubscriptionRepository

	now func() time.Time
}

func NewSubscriptionService(u repository.UserRepository, s repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{
		u:   u,
		s:   s,
		now: time.Now,
	}
}

func (s *subscriptionService) HandleSubscription(ctx context.Context, payload *transfer.SubscriptionEvent) error {
	var status string
	switch payload.EventType {
	case transfer.EventSubscriptionPaid:
		status = models.SubscriptionStatusActive
	case transfer.EventSubscriptionCanceled, transfer.EventSubscriptionExpired:
		status = models.SubscriptionStatusExpired
	default:
		slog.Info("ignoring subscription event", "event_type", payload.EventType)
		return nil
	}

	customerEmail := payload.Object.Customer.Email
	user, isExist, err := s.u.GetByEmail(ctx, customerEmail)
	if err != nil {
		return fmt.Errorf("fetching user by email failed: %w", err)
	}

	var userID int64
	if !isExist {
		if status != models.SubscriptionStatusActive {
			return nil
		}
		userID, err = s.u.Create(ctx, nil, &models.User{
			Email: customerEmail,
			Name:  payload.Object.Customer.Name,
		})
		if err != nil {
			return err
		}
	} else {
		userID = user.ID
	}

	endDate := payload.Object.CurrentPeriodEndDate
	if status == models.SubscriptionStatusExpired && payload.Object.CanceledAt != nil {
		endDate = *payload.Object.CanceledAt
	}
	subscriptionInfo := &models.Subscription{
		UserID:              userID,
		SubscriptionID:      payload.Object.ID,
		SubscriptionEndDate: endDate,
		Status:              status,
	}

	_, hasSubscription, err := s.s.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !hasSubscription {
		_, err = s.s.Create(ctx, subscriptionInfo)
		return err
	}
	return s.s.UpdateSubscription(ctx, subscriptionInfo)
}

// IsActive is the entitlement check run before every publish.
func (s *subscriptionService) IsActive(ctx context.Context, userID int64) (bool, error) {
	sub, found, err := s.s.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return sub.Active(s.now()), nil
}

func (s *subscriptionService) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.s.ExpireLapsed(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("subscriptions expired", "count", n)
	}
	return n, nil
}
