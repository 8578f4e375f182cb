package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postqueue/internal/models"
)

type PostLogRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pl *models.PostLog) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error)
}

type postLogRepository struct {
	db *sql.DB
}

func NewPostLogRepository(db *sql.DB) PostLogRepository {
	return &postLogRepository{db: db}
}

func (r *postLogRepository) Create(ctx context.Context, tx *sql.Tx, pl *models.PostLog) (int64, error) {
	query := `
		INSERT INTO post_logs (post_id, status, message)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := conn(r.db, tx).QueryRowContext(ctx, query, pl.PostID, string(pl.Status), pl.Message).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postLogRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error) {
	query := `
		SELECT id, post_id, status, message, created_at
		FROM post_logs
		WHERE post_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var logs []*models.PostLog
	for rows.Next() {
		var pl models.PostLog
		if err := rows.Scan(&pl.ID, &pl.PostID, &pl.Status, &pl.Message, &pl.Timestamp); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		logs = append(logs, &pl)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return logs, nil
}
