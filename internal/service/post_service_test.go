package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	db      *memDB
	svc     *postService
	account *models.SocialAccount
	now     time.Time
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	db := newMemDB()
	lc := NewLifecycleService(db, memPosts{db}, memQueue{db}, memLogs{db})
	svc := NewPostService(db, memPosts{db}, memQueue{db}, memCalendars{db}, memAccounts{db}, memMedia{db}, memPostMedia{db}, memLogs{db}, lc, nil).(*postService)

	f := &postFixture{
		db:      db,
		svc:     svc,
		account: db.addAccount(testUser, "Europe/Berlin"),
		now:     time.Date(2024, 1, 1, 8, 0, 30, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.now }
	return f
}

func TestPostService_CreateAndUpdateDraft(t *testing.T) {
	f := newPostFixture(t)

	post, err := f.svc.CreateDraft(context.Background(), testUser, &transfer.DraftRequest{AccountID: f.account.ID, Content: "First take"})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)

	updated, err := f.svc.UpdateDraft(context.Background(), testUser, post.ID, "Second take")
	require.NoError(t, err)
	assert.Equal(t, "Second take", updated.Content)

	logs, err := f.svc.Logs(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.LogDraftCreated, logs[0].Status)
	assert.Equal(t, models.LogDraftUpdated, logs[1].Status)

	_, err = f.svc.CreateDraft(context.Background(), testUser+1, &transfer.DraftRequest{AccountID: f.account.ID, Content: "Not mine"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_ScheduleAt(t *testing.T) {
	f := newPostFixture(t)
	post := f.db.addPost(testUser, f.account.ID, "Explicit time")

	_, err := f.svc.ScheduleAt(context.Background(), testUser, post.ID, f.now.Add(10*time.Second))
	assert.ErrorIs(t, err, ErrScheduleInPast, "truncated to the current minute")

	at := time.Date(2024, 1, 3, 7, 15, 42, 0, time.UTC)
	entry, err := f.svc.ScheduleAt(context.Background(), testUser, post.ID, at)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 7, 15, 0, 0, time.UTC), entry.ScheduledFor)
	assert.Equal(t, models.PostStatusScheduled, f.db.posts[post.ID].Status)

	logs := f.db.logsFor(post.ID)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "2024-01-03T08:15:00+01:00")
}

func TestPostService_ScheduleAtKeepsCalendarLimits(t *testing.T) {
	f := newPostFixture(t)
	f.db.calendars[f.account.ID] = &models.Calendar{AccountID: f.account.ID, PostsPerDay: 1, MinGapMinutes: 60}

	first := f.db.addPost(testUser, f.account.ID, "First")
	_, err := f.svc.ScheduleAt(context.Background(), testUser, first.ID, time.Date(2024, 1, 3, 7, 15, 0, 0, time.UTC))
	require.NoError(t, err)

	second := f.db.addPost(testUser, f.account.ID, "Second")

	_, err = f.svc.ScheduleAt(context.Background(), testUser, second.ID, time.Date(2024, 1, 3, 7, 45, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrSlotConflict, "inside the gap")

	_, err = f.svc.ScheduleAt(context.Background(), testUser, second.ID, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrSlotConflict, "same Berlin day as the first post")
	assert.Equal(t, models.PostStatusDraft, f.db.posts[second.ID].Status)
	assert.Empty(t, f.db.logsFor(second.ID))

	// 23:30 UTC is already January 4th in Berlin.
	entry, err := f.svc.ScheduleAt(context.Background(), testUser, second.ID, time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC), entry.ScheduledFor)
}

func TestPostService_PrepareNow(t *testing.T) {
	f := newPostFixture(t)
	draft := f.db.addPost(testUser, f.account.ID, "Now please")

	post, err := f.svc.PrepareNow(context.Background(), testUser, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, post.ID)

	f.db.posts[draft.ID].Status = models.PostStatusPublishing
	_, err = f.svc.PrepareNow(context.Background(), testUser, draft.ID)
	assert.ErrorIs(t, err, ErrPostPublishing)

	f.db.posts[draft.ID].Status = models.PostStatusPublished
	_, err = f.svc.PrepareNow(context.Background(), testUser, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPostService_RetryCopiesFailedPost(t *testing.T) {
	f := newPostFixture(t)
	failed := f.db.addPost(testUser, f.account.ID, "Try again")
	failed.Status = models.PostStatusFailed
	f.db.media[failed.ID] = []*models.MediaAsset{{ID: 77, FileType: "image/png"}}

	draft, err := f.svc.Retry(context.Background(), testUser, failed.ID)
	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, draft.ID)
	assert.Equal(t, models.PostStatusDraft, draft.Status)
	assert.Equal(t, "Try again", draft.Content)
	assert.Len(t, f.db.media[draft.ID], 1)
	assert.Equal(t, models.PostStatusFailed, f.db.posts[failed.ID].Status)

	_, err = f.svc.Retry(context.Background(), testUser, draft.ID)
	assert.ErrorIs(t, err, ErrNotFailed)
}

func TestPostService_Remove(t *testing.T) {
	f := newPostFixture(t)
	post := f.db.addPost(testUser, f.account.ID, "Going away")
	post.Status = models.PostStatusPublishing

	assert.ErrorIs(t, f.svc.Remove(context.Background(), testUser, post.ID), ErrPostPublishing)

	post.Status = models.PostStatusDraft
	require.NoError(t, f.svc.Remove(context.Background(), testUser, post.ID))
	assert.NotContains(t, f.db.posts, post.ID)
}

func TestPostService_ListRejectsUnknownStatus(t *testing.T) {
	f := newPostFixture(t)
	f.db.addPost(testUser, f.account.ID, "One")

	posts, err := f.svc.List(context.Background(), testUser, models.PostStatusDraft)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	_, err = f.svc.List(context.Background(), testUser, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPostService_Pending(t *testing.T) {
	f := newPostFixture(t)
	soon := f.db.addPost(testUser, f.account.ID, "Soon")
	soon.Status = models.PostStatusScheduled
	at := f.now.Add(2 * time.Hour)
	soon.ScheduledTime = &at

	later := f.db.addPost(testUser, f.account.ID, "Later")
	later.Status = models.PostStatusScheduled
	far := f.now.Add(72 * time.Hour)
	later.ScheduledTime = &far

	pending, err := f.svc.Pending(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, soon.ID, pending[0].PostID)
	assert.Equal(t, "2 hours from now", pending[0].TimeUntil)
}
