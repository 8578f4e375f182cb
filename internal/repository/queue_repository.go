package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
)

type QueueRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *models.QueueEntry) (int64, error)
	ListByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) ([]*models.QueueEntry, error)
	Update(ctx context.Context, tx *sql.Tx, id int64, order int, scheduledFor time.Time) error
	RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error
}

type queueRepository struct {
	db *sql.DB
}

func NewQueueRepository(db *sql.DB) QueueRepository {
	return &queueRepository{db: db}
}

// Create appends an entry after the account's current last position and
// fills in entry.ID and entry.Order.
func (r *queueRepository) Create(ctx context.Context, tx *sql.Tx, entry *models.QueueEntry) (int64, error) {
	query := `
		INSERT INTO queue_entries (account_id, post_id, queue_order, scheduled_for)
		SELECT $1, $2, COALESCE(MAX(queue_order), 0) + 1, $3
		FROM queue_entries
		WHERE account_id = $1
		RETURNING id, queue_order
	`

	err := conn(r.db, tx).QueryRowContext(ctx, query, entry.AccountID, entry.PostID, entry.ScheduledFor).Scan(&entry.ID, &entry.Order)
	if err != nil {
		slog.Info(err.Error())
		return 0, mapError(err)
	}

	return entry.ID, nil
}

func (r *queueRepository) ListByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) ([]*models.QueueEntry, error) {
	query := `
		SELECT id, account_id, post_id, queue_order, scheduled_for, created_at
		FROM queue_entries
		WHERE account_id = $1
		ORDER BY queue_order
	`

	rows, err := conn(r.db, tx).QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.PostID, &e.Order, &e.ScheduledFor, &e.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return entries, nil
}

func (r *queueRepository) Update(ctx context.Context, tx *sql.Tx, id int64, order int, scheduledFor time.Time) error {
	query := `
		UPDATE queue_entries
		SET queue_order = $1,
			scheduled_for = $2
		WHERE id = $3
	`
	_, err := conn(r.db, tx).ExecContext(ctx, query, order, scheduledFor, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *queueRepository) RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	query := `DELETE FROM queue_entries WHERE post_id = $1`
	_, err := conn(r.db, tx).ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
