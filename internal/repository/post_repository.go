package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

const postColumns = `p.id, p.user_id, p.account_id, p.content, p.status, p.scheduled_time,
	p.published_time, p.external_published_id, p.created_at, p.updated_at`

// StatusUpdate carries the column changes that go with a status transition.
// Nil fields are left untouched.
type StatusUpdate struct {
	ScheduledTime       *time.Time
	ClearSchedule       bool
	PublishedTime       *time.Time
	ExternalPublishedID *string
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ListByUserID(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error)
	UpdateDraft(ctx context.Context, tx *sql.Tx, post *models.Post) (bool, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, from, to models.PostStatus, upd StatusUpdate) (bool, error)
	ListScheduledTimes(ctx context.Context, tx *sql.Tx, accountID int64, since time.Time) ([]time.Time, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error)
	GetDue(ctx context.Context, id int64) (*models.DuePost, error)
	ListStale(ctx context.Context, before time.Time) ([]int64, error)
	ListPending(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner, extra ...any) (*models.Post, error) {
	var post models.Post
	dest := []any{&post.ID, &post.UserID, &post.AccountID, &post.Content, &post.Status, &post.ScheduledTime,
		&post.PublishedTime, &post.ExternalPublishedID, &post.CreatedAt, &post.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, account_id, content, status, scheduled_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := conn(r.db, tx).QueryRowContext(ctx, query, post.UserID, post.AccountID, post.Content, post.Status, post.ScheduledTime).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	post, err := scanPost(conn(r.db, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.user_id = $1 AND ($2 = '' OR p.status = $2) ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// UpdateDraft rewrites content and account of a post that is still a draft.
func (r *postRepository) UpdateDraft(ctx context.Context, tx *sql.Tx, post *models.Post) (bool, error) {
	query := `
		UPDATE posts
		SET content = $1,
			account_id = $2,
			updated_at = NOW()
		WHERE id = $3 AND status = 'draft'
	`
	result, err := conn(r.db, tx).ExecContext(ctx, query, post.Content, post.AccountID, post.ID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affectedOne(result)
}

// SetStatus moves a post from one status to another only if it is still in
// from. It reports false when another writer got there first.
func (r *postRepository) SetStatus(ctx context.Context, tx *sql.Tx, id int64, from, to models.PostStatus, upd StatusUpdate) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			scheduled_time = CASE WHEN $2::boolean THEN NULL ELSE COALESCE($3::timestamptz, scheduled_time) END,
			published_time = COALESCE($4::timestamptz, published_time),
			external_published_id = COALESCE($5::text, external_published_id),
			updated_at = NOW()
		WHERE id = $6 AND status = $7
	`
	result, err := conn(r.db, tx).ExecContext(ctx, query,
		string(to),
		upd.ClearSchedule,
		upd.ScheduledTime,
		upd.PublishedTime,
		upd.ExternalPublishedID,
		id,
		string(from),
	)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affectedOne(result)
}

// ListScheduledTimes returns the instants already taken on an account from
// since onwards, including posts that are being published right now.
func (r *postRepository) ListScheduledTimes(ctx context.Context, tx *sql.Tx, accountID int64, since time.Time) ([]time.Time, error) {
	query := `
		SELECT scheduled_time
		FROM posts
		WHERE account_id = $1
		AND status IN ('scheduled', 'publishing')
		AND scheduled_time >= $2
		ORDER BY scheduled_time
	`
	rows, err := conn(r.db, tx).QueryContext(ctx, query, accountID, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return times, nil
}

const dueQuery = `SELECT ` + postColumns + `,
		a.id, a.user_id, a.platform, a.account_id, a.account_name, a.access_token, a.token_expires_at, a.timezone
	FROM posts p
	JOIN social_accounts a ON a.id = p.account_id
`

func scanDue(row rowScanner) (*models.DuePost, error) {
	var a models.SocialAccount
	post, err := scanPost(row, &a.ID, &a.UserID, &a.Platform, &a.AccountID, &a.AccountName, &a.AccessToken, &a.TokenExpiresAt, &a.Timezone)
	if err != nil {
		return nil, err
	}
	return &models.DuePost{Post: post, Account: &a}, nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	query := dueQuery + `WHERE p.status = 'scheduled' AND p.scheduled_time <= $1 ORDER BY p.scheduled_time`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var due []*models.DuePost
	for rows.Next() {
		dp, err := scanDue(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		due = append(due, dp)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return due, nil
}

func (r *postRepository) GetDue(ctx context.Context, id int64) (*models.DuePost, error) {
	query := dueQuery + `WHERE p.id = $1`

	dp, err := scanDue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return dp, nil
}

// ListStale returns posts that were claimed for publishing before the given
// time and never reached an outcome.
func (r *postRepository) ListStale(ctx context.Context, before time.Time) ([]int64, error) {
	query := `SELECT id FROM posts WHERE status = 'publishing' AND updated_at < $1`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPending returns scheduled posts in [from, to] whose owners can publish.
func (r *postRepository) ListPending(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN subscriptions s ON s.user_id = p.user_id
		WHERE p.status = 'scheduled'
		AND p.scheduled_time BETWEEN $1 AND $2
		AND s.status = 'active'
		AND s.subscription_end_date > $1
		ORDER BY p.scheduled_time
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := conn(r.db, tx).ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n == 1, nil
}
