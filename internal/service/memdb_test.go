package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
)

// memDB is an in-memory stand-in for the postgres repositories. WithTx
// restores the previous state when fn fails, like a rolled back transaction.
type memDB struct {
	mu sync.Mutex

	posts     map[int64]*models.Post
	queue     map[int64]*models.QueueEntry
	calendars map[int64]*models.Calendar
	accounts  map[int64]*models.SocialAccount
	media     map[int64][]*models.MediaAsset
	logs      []*models.PostLog

	nextID int64
}

func newMemDB() *memDB {
	return &memDB{
		posts:     map[int64]*models.Post{},
		queue:     map[int64]*models.QueueEntry{},
		calendars: map[int64]*models.Calendar{},
		accounts:  map[int64]*models.SocialAccount{},
		media:     map[int64][]*models.MediaAsset{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	posts map[int64]models.Post
	queue map[int64]models.QueueEntry
	logs  int
}

func (m *memDB) snapshot() memSnapshot {
	s := memSnapshot{posts: map[int64]models.Post{}, queue: map[int64]models.QueueEntry{}, logs: len(m.logs)}
	for id, p := range m.posts {
		s.posts[id] = *p
	}
	for id, e := range m.queue {
		s.queue[id] = *e
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.posts = map[int64]*models.Post{}
	for id, p := range s.posts {
		p := p
		m.posts[id] = &p
	}
	m.queue = map[int64]*models.QueueEntry{}
	for id, e := range s.queue {
		e := e
		m.queue[id] = &e
	}
	m.logs = m.logs[:s.logs]
}

func (m *memDB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memDB) addAccount(userID int64, tz string) *models.SocialAccount {
	a := &models.SocialAccount{ID: m.id(), UserID: userID, Platform: models.PlatformLinkedIn, Timezone: tz}
	m.accounts[a.ID] = a
	return a
}

func (m *memDB) addPost(userID, accountID int64, content string) *models.Post {
	p := &models.Post{ID: m.id(), UserID: userID, AccountID: accountID, Content: content, Status: models.PostStatusDraft}
	m.posts[p.ID] = p
	return p
}

func (m *memDB) logsFor(postID int64) []*models.PostLog {
	var out []*models.PostLog
	for _, l := range m.logs {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return out
}

type memPosts struct{ *memDB }

func (r memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *post
	p.ID = r.id()
	r.posts[p.ID] = &p
	post.ID = p.ID
	return p.ID, nil
}

func (r memPosts) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memPosts) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	return ok && p.UserID == userID, nil
}

func (r memPosts) ListByUserID(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID && (status == "" || p.Status == status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memPosts) UpdateDraft(ctx context.Context, tx *sql.Tx, post *models.Post) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[post.ID]
	if !ok || p.Status != models.PostStatusDraft {
		return false, nil
	}
	p.Content = post.Content
	return true, nil
}

func (r memPosts) SetStatus(ctx context.Context, tx *sql.Tx, id int64, from, to models.PostStatus, upd repository.StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if upd.ScheduledTime != nil {
		at := *upd.ScheduledTime
		p.ScheduledTime = &at
	}
	if upd.ClearSchedule {
		p.ScheduledTime = nil
	}
	if upd.PublishedTime != nil {
		p.PublishedTime = upd.PublishedTime
	}
	if upd.ExternalPublishedID != nil {
		p.ExternalPublishedID = upd.ExternalPublishedID
	}
	return true, nil
}

func (r memPosts) ListScheduledTimes(ctx context.Context, tx *sql.Tx, accountID int64, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, p := range r.posts {
		if p.AccountID != accountID || p.ScheduledTime == nil {
			continue
		}
		if p.Status != models.PostStatusScheduled && p.Status != models.PostStatusPublishing {
			continue
		}
		if !p.ScheduledTime.Before(since) {
			out = append(out, *p.ScheduledTime)
		}
	}
	return out, nil
}

func (r memPosts) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	return nil, nil
}

func (r memPosts) GetDue(ctx context.Context, id int64) (*models.DuePost, error) {
	return nil, nil
}

func (r memPosts) ListStale(ctx context.Context, before time.Time) ([]int64, error) {
	return nil, nil
}

func (r memPosts) ListPending(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && p.ScheduledTime != nil &&
			!p.ScheduledTime.Before(from) && !p.ScheduledTime.After(to) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memPosts) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	for qid, e := range r.queue {
		if e.PostID == id {
			delete(r.queue, qid)
		}
	}
	return nil
}

type memQueue struct{ *memDB }

func (r memQueue) Create(ctx context.Context, tx *sql.Tx, entry *models.QueueEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxOrder := 0
	for _, e := range r.queue {
		if e.PostID == entry.PostID {
			return 0, repository.ErrDuplicate
		}
		if e.AccountID == entry.AccountID && e.Order > maxOrder {
			maxOrder = e.Order
		}
	}
	e := *entry
	e.ID = r.id()
	e.Order = maxOrder + 1
	r.queue[e.ID] = &e
	entry.ID, entry.Order = e.ID, e.Order
	return e.ID, nil
}

func (r memQueue) ListByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) ([]*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QueueEntry
	for _, e := range r.queue {
		if e.AccountID == accountID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r memQueue) Update(ctx context.Context, tx *sql.Tx, id int64, order int, scheduledFor time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.queue[id]; ok {
		e.Order = order
		e.ScheduledFor = scheduledFor
	}
	return nil
}

func (r memQueue) RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.queue {
		if e.PostID == postID {
			delete(r.queue, id)
		}
	}
	return nil
}

type memCalendars struct{ *memDB }

func (r memCalendars) GetByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Calendar, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calendars[accountID]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	return &cp, true, nil
}

func (r memCalendars) Upsert(ctx context.Context, tx *sql.Tx, cal *models.Calendar) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cal
	if existing, ok := r.calendars[cal.AccountID]; ok {
		cp.ID = existing.ID
	} else {
		cp.ID = r.id()
	}
	r.calendars[cal.AccountID] = &cp
	cal.ID = cp.ID
	return cp.ID, nil
}

type memAccounts struct{ *memDB }

func (r memAccounts) Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == sa.UserID && a.AccountID == sa.AccountID {
			return a.ID, false, nil
		}
	}
	cp := *sa
	cp.ID = r.id()
	r.accounts[cp.ID] = &cp
	return cp.ID, true, nil
}

func (r memAccounts) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.SocialAccount, error) {
	return r.GetByID(ctx, tx, id)
}

func (r memAccounts) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memAccounts) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r memAccounts) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	return ok && a.UserID == userID, nil
}

func (r memAccounts) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (r memAccounts) UpdateTimezone(ctx context.Context, id int64, timezone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.Timezone = timezone
	}
	return nil
}

func (r memAccounts) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type memMedia struct{ *memDB }

func (r memMedia) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ma.ID = r.id()
	return ma.ID, nil
}

func (r memMedia) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return nil, nil
}

func (r memMedia) ListByPostID(ctx context.Context, postID int64) ([]*models.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.media[postID], nil
}

type memLogs struct{ *memDB }

func (r memLogs) Create(ctx context.Context, tx *sql.Tx, pl *models.PostLog) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pl
	cp.ID = r.id()
	r.logs = append(r.logs, &cp)
	return cp.ID, nil
}

func (r memLogs) ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logsFor(postID), nil
}

type memPostMedia struct{ *memDB }

func (r memPostMedia) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	return nil
}

func (r memPostMedia) CountByPostID(ctx context.Context, tx *sql.Tx, postID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.media[postID]), nil
}

func (r memPostMedia) CopyToPost(ctx context.Context, tx *sql.Tx, fromPostID, toPostID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.media[toPostID] = append([]*models.MediaAsset(nil), r.media[fromPostID]...)
	return nil
}
