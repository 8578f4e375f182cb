package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/stretchr/testify/mock"
)

type mockPostService struct{ mock.Mock }

func (m *mockPostService) CreateDraft(ctx context.Context, userID int64, req *transfer.DraftRequest) (*models.Post, error) {
	args := m.Called(ctx, userID, req)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) UpdateDraft(ctx context.Context, userID, postID int64, content string) (*models.Post, error) {
	args := m.Called(ctx, userID, postID, content)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) AttachMedia(ctx context.Context, userID, postID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	args := m.Called(ctx, userID, postID, files)
	a, _ := args.Get(0).([]*models.MediaAsset)
	return a, args.Error(1)
}

func (m *mockPostService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	args := m.Called(ctx, userID, postID)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) List(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error) {
	args := m.Called(ctx, userID, status)
	p, _ := args.Get(0).([]*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) Logs(ctx context.Context, userID, postID int64) ([]*models.PostLog, error) {
	args := m.Called(ctx, userID, postID)
	l, _ := args.Get(0).([]*models.PostLog)
	return l, args.Error(1)
}

func (m *mockPostService) ScheduleAt(ctx context.Context, userID, postID int64, at time.Time) (*models.QueueEntry, error) {
	args := m.Called(ctx, userID, postID, at)
	e, _ := args.Get(0).(*models.QueueEntry)
	return e, args.Error(1)
}

func (m *mockPostService) PrepareNow(ctx context.Context, userID, postID int64) (*models.Post, error) {
	args := m.Called(ctx, userID, postID)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) Retry(ctx context.Context, userID, postID int64) (*models.Post, error) {
	args := m.Called(ctx, userID, postID)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostService) Remove(ctx context.Context, userID, postID int64) error {
	return m.Called(ctx, userID, postID).Error(0)
}

func (m *mockPostService) Pending(ctx context.Context, within time.Duration) ([]*transfer.PendingPost, error) {
	args := m.Called(ctx, within)
	p, _ := args.Get(0).([]*transfer.PendingPost)
	return p, args.Error(1)
}
