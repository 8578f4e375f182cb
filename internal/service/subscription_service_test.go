package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *mockUsers) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	args := m.Called(ctx, tx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSubscriptions struct{ mock.Mock }

func (m *mockSubscriptions) GetByUserID(ctx context.Context, userID int64) (*models.Subscription, bool, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.Subscription)
	return s, args.Bool(1), args.Error(2)
}

func (m *mockSubscriptions) Create(ctx context.Context, subscription *models.Subscription) (int64, error) {
	args := m.Called(ctx, subscription)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptions) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return m.Called(ctx, subscription).Error(0)
}

func (m *mockSubscriptions) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func subscriptionEvent(eventType string, end time.Time) *transfer.SubscriptionEvent {
	var ev transfer.SubscriptionEvent
	ev.ID = "evt_1"
	ev.EventType = eventType
	ev.Object.ID = "sub_1"
	ev.Object.Customer.Email = "ada@example.com"
	ev.Object.Customer.Name = "Ada"
	ev.Object.CurrentPeriodEndDate = end
	return &ev
}

func TestSubscriptionService_PaidCreatesUserAndSubscription(t *testing.T) {
	users, subs := &mockUsers{}, &mockSubscriptions{}
	svc := NewSubscriptionService(users, subs)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, false, nil)
	users.On("Create", mock.Anything, (*sql.Tx)(nil), mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ada@example.com" && u.Name == "Ada"
	})).Return(int64(5), nil)
	subs.On("GetByUserID", mock.Anything, int64(5)).Return(nil, false, nil)
	subs.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.UserID == 5 && s.Status == models.SubscriptionStatusActive && s.SubscriptionEndDate.Equal(end)
	})).Return(int64(1), nil)

	require.NoError(t, svc.HandleSubscription(context.Background(), subscriptionEvent(transfer.EventSubscriptionPaid, end)))
	users.AssertExpectations(t)
	subs.AssertExpectations(t)
}

func TestSubscriptionService_CanceledUsesCancelTime(t *testing.T) {
	users, subs := &mockUsers{}, &mockSubscriptions{}
	svc := NewSubscriptionService(users, subs)
	canceled := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	ev := subscriptionEvent(transfer.EventSubscriptionCanceled, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	ev.Object.CanceledAt = &canceled

	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(&models.User{ID: 5}, true, nil)
	subs.On("GetByUserID", mock.Anything, int64(5)).Return(&models.Subscription{UserID: 5}, true, nil)
	subs.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s *models.Subscription) bool {
		return s.Status == models.SubscriptionStatusExpired && s.SubscriptionEndDate.Equal(canceled)
	})).Return(nil)

	require.NoError(t, svc.HandleSubscription(context.Background(), ev))
	subs.AssertExpectations(t)
}

func TestSubscriptionService_IgnoresUnknownEventsAndStrangers(t *testing.T) {
	users, subs := &mockUsers{}, &mockSubscriptions{}
	svc := NewSubscriptionService(users, subs)

	require.NoError(t, svc.HandleSubscription(context.Background(), subscriptionEvent("subscription.trialing", time.Now())))
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)

	users.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, false, nil)
	require.NoError(t, svc.HandleSubscription(context.Background(), subscriptionEvent(transfer.EventSubscriptionExpired, time.Now())))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionService_IsActive(t *testing.T) {
	users, subs := &mockUsers{}, &mockSubscriptions{}
	svc := NewSubscriptionService(users, subs).(*subscriptionService)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	subs.On("GetByUserID", mock.Anything, int64(1)).Return(&models.Subscription{Status: models.SubscriptionStatusActive, SubscriptionEndDate: now.Add(time.Hour)}, true, nil)
	subs.On("GetByUserID", mock.Anything, int64(2)).Return(&models.Subscription{Status: models.SubscriptionStatusActive, SubscriptionEndDate: now.Add(-time.Hour)}, true, nil)
	subs.On("GetByUserID", mock.Anything, int64(3)).Return(nil, false, nil)

	for userID, want := range map[int64]bool{1: true, 2: false, 3: false} {
		got, err := svc.IsActive(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %d", userID)
	}
}
