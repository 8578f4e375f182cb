package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycleTest(t *testing.T) (*memDB, LifecycleService, *models.Post) {
	t.Helper()
	db := newMemDB()
	lc := NewLifecycleService(db, memPosts{db}, memQueue{db}, memLogs{db})
	account := db.addAccount(testUser, "UTC")
	post := db.addPost(testUser, account.ID, "Hello")
	return db, lc, post
}

func TestLifecycleService_ScheduleThenClaimOnce(t *testing.T) {
	db, lc, post := newLifecycleTest(t)
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	_, err := lc.Schedule(context.Background(), nil, post, at, "scheduled")
	require.NoError(t, err)
	require.Len(t, db.queue, 1)

	ok, err := lc.Claim(context.Background(), post.ID, models.PostStatusScheduled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, db.queue, "claiming removes the queue entry")

	ok, err = lc.Claim(context.Background(), post.ID, models.PostStatusScheduled)
	require.NoError(t, err)
	assert.False(t, ok, "second claim loses")

	require.NoError(t, lc.MarkPublished(context.Background(), post.ID, "urn:li:share:1", at))
	stored := db.posts[post.ID]
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	require.NotNil(t, stored.ExternalPublishedID)
	assert.Equal(t, "urn:li:share:1", *stored.ExternalPublishedID)

	var statuses []models.LogStatus
	for _, l := range db.logsFor(post.ID) {
		statuses = append(statuses, l.Status)
	}
	assert.Equal(t, []models.LogStatus{models.LogScheduled, models.LogPublishing, models.LogPublished}, statuses)
	assert.Equal(t, "Post published successfully on LinkedIn. Post ID: urn:li:share:1", db.logs[len(db.logs)-1].Message)
}

func TestLifecycleService_FailScheduledLeavesQueue(t *testing.T) {
	db, lc, post := newLifecycleTest(t)
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	_, err := lc.Schedule(context.Background(), nil, post, at, "scheduled")
	require.NoError(t, err)

	ok, err := lc.Fail(context.Background(), post.ID, models.PostStatusScheduled, "entitlement inactive")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.PostStatusFailed, db.posts[post.ID].Status)
	assert.Empty(t, db.queue)
}

func TestLifecycleService_RejectsInvalidTransitions(t *testing.T) {
	db, lc, post := newLifecycleTest(t)

	_, err := lc.Fail(context.Background(), post.ID, models.PostStatusPublished, "late failure")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = lc.MarkPublished(context.Background(), post.ID, "urn:li:share:2", time.Now())
	assert.ErrorIs(t, err, ErrConcurrentUpdate, "a draft was never claimed")
	assert.Equal(t, models.PostStatusDraft, db.posts[post.ID].Status)
	assert.Empty(t, db.logs)
}

func TestLifecycleService_UnscheduleDraftFails(t *testing.T) {
	_, lc, post := newLifecycleTest(t)

	err := lc.Unschedule(context.Background(), nil, post)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
