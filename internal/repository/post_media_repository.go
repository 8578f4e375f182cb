package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postqueue/internal/models"
)

type PostMediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error
	CountByPostID(ctx context.Context, tx *sql.Tx, postID int64) (int, error)
	CopyToPost(ctx context.Context, tx *sql.Tx, fromPostID, toPostID int64) error
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

func (r *postMediaRepository) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	query := `
		INSERT INTO post_media (post_id, asset_id, display_order)
		VALUES ($1, $2, $3)
	`
	_, err := conn(r.db, tx).ExecContext(ctx, query, pm.PostID, pm.AssetID, pm.DisplayOrder)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postMediaRepository) CountByPostID(ctx context.Context, tx *sql.Tx, postID int64) (int, error) {
	var n int
	err := conn(r.db, tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM post_media WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

// CopyToPost attaches every asset of one post to another, keeping the order.
func (r *postMediaRepository) CopyToPost(ctx context.Context, tx *sql.Tx, fromPostID, toPostID int64) error {
	query := `
		INSERT INTO post_media (post_id, asset_id, display_order)
		SELECT $2, asset_id, display_order
		FROM post_media
		WHERE post_id = $1
	`
	_, err := conn(r.db, tx).ExecContext(ctx, query, fromPostID, toPostID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
