package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postqueue/internal/models"
)

type CalendarRepository interface {
	GetByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Calendar, bool, error)
	Upsert(ctx context.Context, tx *sql.Tx, cal *models.Calendar) (int64, error)
}

type calendarRepository struct {
	db *sql.DB
}

func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetByAccountID(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Calendar, bool, error) {
	query := `
		SELECT id, account_id, days, posts_per_day, min_gap_minutes, created_at, updated_at
		FROM post_calendars
		WHERE account_id = $1
	`

	var cal models.Calendar
	err := conn(r.db, tx).QueryRowContext(ctx, query, accountID).Scan(
		&cal.ID,
		&cal.AccountID,
		&cal.Days,
		&cal.PostsPerDay,
		&cal.MinGapMinutes,
		&cal.CreatedAt,
		&cal.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &cal, true, nil
}

// Upsert replaces the whole calendar of an account, creating it if needed.
func (r *calendarRepository) Upsert(ctx context.Context, tx *sql.Tx, cal *models.Calendar) (int64, error) {
	query := `
		INSERT INTO post_calendars (account_id, days, posts_per_day, min_gap_minutes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET days = EXCLUDED.days,
			posts_per_day = EXCLUDED.posts_per_day,
			min_gap_minutes = EXCLUDED.min_gap_minutes,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := conn(r.db, tx).QueryRowContext(ctx, query, cal.AccountID, cal.Days, cal.PostsPerDay, cal.MinGapMinutes).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
