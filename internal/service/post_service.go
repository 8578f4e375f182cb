package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/transfer"
	"github.com/maheshrc27/postqueue/internal/validation"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type PostService interface {
	CreateDraft(ctx context.Context, userID int64, req *transfer.DraftRequest) (*models.Post, error)
	UpdateDraft(ctx context.Context, userID, postID int64, content string) (*models.Post, error)
	AttachMedia(ctx context.Context, userID, postID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	List(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error)
	Logs(ctx context.Context, userID, postID int64) ([]*models.PostLog, error)
	ScheduleAt(ctx context.Context, userID, postID int64, at time.Time) (*models.QueueEntry, error)
	PrepareNow(ctx context.Context, userID, postID int64) (*models.Post, error)
	Retry(ctx context.Context, userID, postID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	Pending(ctx context.Context, within time.Duration) ([]*transfer.PendingPost, error)
}

type postService struct {
	tx      repository.Transactor
	pr      repository.PostRepository
	qr      repository.QueueRepository
	cr      repository.CalendarRepository
	ac      repository.SocialAccountRepository
	ma      repository.MediaAssetRepository
	pm      repository.PostMediaRepository
	lr      repository.PostLogRepository
	lc      LifecycleService
	storage MediaStorage

	now func() time.Time
}

func NewPostService(
	tx repository.Transactor,
	pr repository.PostRepository,
	qr repository.QueueRepository,
	cr repository.CalendarRepository,
	ac repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	lr repository.PostLogRepository,
	lc LifecycleService,
	storage MediaStorage) PostService {
	return &postService{
		tx:      tx,
		pr:      pr,
		qr:      qr,
		cr:      cr,
		ac:      ac,
		ma:      ma,
		pm:      pm,
		lr:      lr,
		lc:      lc,
		storage: storage,
		now:     time.Now,
	}
}

func (s *postService) CreateDraft(ctx context.Context, userID int64, req *transfer.DraftRequest) (*models.Post, error) {
	ok, err := s.ac.CheckByUserID(ctx, req.AccountID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Info("social account does not belong to user", "account_id", req.AccountID)
		return nil, ErrNotFound
	}

	post := &models.Post{
		UserID:    userID,
		AccountID: req.AccountID,
		Content:   req.Content,
		Status:    models.PostStatusDraft,
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.pr.Create(ctx, tx, post)
		if err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}
		post.ID = id
		return s.lc.Log(ctx, tx, id, models.LogDraftCreated, "Draft created")
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) UpdateDraft(ctx context.Context, userID, postID int64, content string) (*models.Post, error) {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, ErrNotDraft
	}

	post.Content = content
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := s.pr.UpdateDraft(ctx, tx, post)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotDraft
		}
		return s.lc.Log(ctx, tx, post.ID, models.LogDraftUpdated, "Draft updated")
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// AttachMedia uploads files and links them to a draft. The combined media of
// the post must still satisfy the platform rules.
func (s *postService) AttachMedia(ctx context.Context, userID, postID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, ErrNotDraft
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidMedia)
	}

	existing, err := s.ma.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	assets := make([]*models.MediaAsset, 0, len(files))
	contents := make([][]byte, 0, len(files))
	for _, file := range files {
		data, mime, err := readFile(file)
		if err != nil {
			return nil, err
		}
		assets = append(assets, &models.MediaAsset{
			UserID:   userID,
			FileType: mime,
			FileSize: int64(len(data)),
		})
		contents = append(contents, data)
	}

	if err := validation.ValidateMedia(append(existing, assets...)); err != nil {
		slog.Info(err.Error(), "post_id", post.ID)
		return nil, err
	}

	for i, asset := range assets {
		key, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		url, err := s.storage.Upload(ctx, key, contents[i], asset.FileType)
		if err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}
		asset.FileName = key
		asset.FileURL = url
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		offset, err := s.pm.CountByPostID(ctx, tx, post.ID)
		if err != nil {
			return err
		}
		for i, asset := range assets {
			id, err := s.ma.Create(ctx, tx, asset)
			if err != nil {
				return fmt.Errorf("error saving media file: %w", err)
			}
			asset.ID = id
			err = s.pm.Create(ctx, tx, &models.PostMedia{
				PostID:       post.ID,
				AssetID:      id,
				DisplayOrder: offset + i,
			})
			if err != nil {
				return fmt.Errorf("error linking media file: %w", err)
			}
		}
		return s.lc.Log(ctx, tx, post.ID, models.LogDraftUpdated, fmt.Sprintf("%d media file(s) attached", len(assets)))
	})
	if err != nil {
		return nil, err
	}

	return assets, nil
}

func readFile(file *multipart.FileHeader) ([]byte, string, error) {
	f, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("error reading file content: %w", err)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, "", fmt.Errorf("%w: unsupported file type %s", ErrInvalidMedia, file.Filename)
	}
	return data, kind.MIME.Value, nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	post.Media, err = s.ma.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64, status models.PostStatus) ([]*models.Post, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.pr.ListByUserID(ctx, userID, status)
}

func (s *postService) Logs(ctx context.Context, userID, postID int64) ([]*models.PostLog, error) {
	if _, err := ownedPost(ctx, s.pr, userID, postID); err != nil {
		return nil, err
	}
	return s.lr.ListByPostID(ctx, postID)
}

// ScheduleAt queues a draft at a caller-chosen instant. The instant need not be
// a calendar slot, but it must keep the calendar's gap and daily cap against
// the account's upcoming posts.
func (s *postService) ScheduleAt(ctx context.Context, userID, postID int64, at time.Time) (*models.QueueEntry, error) {
	at = at.Truncate(time.Minute)
	if !at.After(s.now()) {
		return nil, ErrScheduleInPast
	}

	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, ErrNotDraft
	}

	media, err := s.ma.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePost(post.Content, media); err != nil {
		return nil, err
	}

	var entry *models.QueueEntry
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		_, loc, err := lockAccount(ctx, tx, s.ac, post.AccountID)
		if err != nil {
			return err
		}

		cal, found, err := s.cr.GetByAccountID(ctx, tx, post.AccountID)
		if err != nil {
			return err
		}
		if found {
			taken, err := s.pr.ListScheduledTimes(ctx, tx, post.AccountID, s.now())
			if err != nil {
				return err
			}
			if !slots.Fits(cal, loc, taken, at) {
				return ErrSlotConflict
			}
		}

		entry, err = s.lc.Schedule(ctx, tx, post, at, fmt.Sprintf("Post scheduled for %s", at.In(loc).Format(time.RFC3339)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PrepareNow checks that a post may be published right away. Publishing
// itself happens in the background.
func (s *postService) PrepareNow(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}

	switch post.Status {
	case models.PostStatusDraft, models.PostStatusScheduled:
	case models.PostStatusPublishing:
		return nil, ErrPostPublishing
	default:
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, post.Status, models.PostStatusPublishing)
	}

	media, err := s.ma.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePost(post.Content, media); err != nil {
		return nil, err
	}
	return post, nil
}

// Retry copies a failed post into a new draft. The failed post stays as it is.
func (s *postService) Retry(ctx context.Context, userID, postID int64) (*models.Post, error) {
	failed, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return nil, err
	}
	if failed.Status != models.PostStatusFailed {
		return nil, ErrNotFailed
	}

	draft := &models.Post{
		UserID:    failed.UserID,
		AccountID: failed.AccountID,
		Content:   failed.Content,
		Status:    models.PostStatusDraft,
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.pr.Create(ctx, tx, draft)
		if err != nil {
			return err
		}
		draft.ID = id
		if err := s.pm.CopyToPost(ctx, tx, failed.ID, id); err != nil {
			return err
		}
		return s.lc.Log(ctx, tx, id, models.LogDraftCreated, fmt.Sprintf("Draft created from failed post %d", failed.ID))
	})
	if err != nil {
		return nil, err
	}

	return draft, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := ownedPost(ctx, s.pr, userID, postID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublishing {
		return ErrPostPublishing
	}

	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.qr.RemoveByPostID(ctx, tx, post.ID); err != nil {
			return err
		}
		if err := s.pr.Remove(ctx, tx, post.ID); err != nil {
			return fmt.Errorf("error removing post: %w", err)
		}
		return nil
	})
}

// Pending lists scheduled posts of active subscribers due within the window.
func (s *postService) Pending(ctx context.Context, within time.Duration) ([]*transfer.PendingPost, error) {
	now := s.now()
	posts, err := s.pr.ListPending(ctx, now, now.Add(within))
	if err != nil {
		return nil, err
	}

	pending := make([]*transfer.PendingPost, 0, len(posts))
	for _, p := range posts {
		if p.ScheduledTime == nil {
			continue
		}
		pending = append(pending, &transfer.PendingPost{
			PostID:        p.ID,
			UserID:        p.UserID,
			AccountID:     p.AccountID,
			ScheduledTime: *p.ScheduledTime,
			TimeUntil:     slots.TimeUntil(*p.ScheduledTime, now),
		})
	}
	return pending, nil
}
