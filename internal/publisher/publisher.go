// Package publisher pushes due scheduled posts to their platform. Every post
// is claimed with a status compare-and-swap before the platform is called, so
// overlapping ticks and manual publishes never publish a post twice.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/slots"
	"github.com/maheshrc27/postqueue/internal/validation"
	"golang.org/x/sync/errgroup"
)

const (
	claimMargin = time.Minute

	entitlementMessage = "Post failed: entitlement inactive (user subscription is not active)"
	staleMessage       = "publish outcome unknown; verify on the platform before retrying"
)

var (
	ErrClaimLost      = errors.New("post was claimed by another publisher")
	ErrNotPublishable = errors.New("post cannot be published in its current status")
)

type Store interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error)
	GetDue(ctx context.Context, id int64) (*models.DuePost, error)
	ListStale(ctx context.Context, before time.Time) ([]int64, error)
}

type MediaLoader interface {
	ListByPostID(ctx context.Context, postID int64) ([]*models.MediaAsset, error)
}

type Transitioner interface {
	Claim(ctx context.Context, postID int64, from models.PostStatus) (bool, error)
	Fail(ctx context.Context, postID int64, from models.PostStatus, message string) (bool, error)
	MarkPublished(ctx context.Context, postID int64, externalID string, at time.Time) error
}

type EntitlementChecker interface {
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// Adapter publishes one post to its platform and returns the platform's id
// for it.
type Adapter interface {
	Publish(ctx context.Context, account *models.SocialAccount, content string, media []*models.MediaAsset) (string, error)
}

type Options struct {
	Workers      int
	CallTimeout  time.Duration
	ClaimTimeout time.Duration
}

type Publisher struct {
	store   Store
	media   MediaLoader
	lc      Transitioner
	ent     EntitlementChecker
	adapter Adapter
	opts    Options

	now func() time.Time
}

func New(store Store, media MediaLoader, lc Transitioner, ent EntitlementChecker, adapter Adapter, opts Options) *Publisher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 2 * time.Minute
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 15 * time.Minute
	}
	// A claim must outlive the platform call it guards.
	if opts.ClaimTimeout <= opts.CallTimeout {
		slog.Warn("claim timeout not above call timeout, raising it",
			"claim_timeout", opts.ClaimTimeout, "call_timeout", opts.CallTimeout)
		opts.ClaimTimeout = opts.CallTimeout + claimMargin
	}
	return &Publisher{
		store:   store,
		media:   media,
		lc:      lc,
		ent:     ent,
		adapter: adapter,
		opts:    opts,
		now:     time.Now,
	}
}

// Tick publishes every scheduled post that is due. Posts are handled
// independently; one failing post does not stop the others.
func (p *Publisher) Tick(ctx context.Context) error {
	now := p.now()
	due, err := p.store.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("listing due posts: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for _, dp := range due {
		loc, err := slots.LoadLocation(dp.Account.Timezone)
		if err != nil {
			slog.Warn("invalid account timezone, using UTC", "account_id", dp.Account.ID, "timezone", dp.Account.Timezone)
			loc = time.UTC
		}
		if dp.Post.ScheduledTime == nil || !slots.IsDue(*dp.Post.ScheduledTime, now, loc) {
			continue
		}

		dp := dp
		g.Go(func() error {
			if err := p.publish(ctx, dp, models.PostStatusScheduled); err != nil {
				slog.Info("post not published", "post_id", dp.Post.ID, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	if len(due) > 0 {
		slog.Info("publish tick finished", "due", len(due))
	}
	return nil
}

// PublishNow publishes a draft or scheduled post right away.
func (p *Publisher) PublishNow(ctx context.Context, postID int64) error {
	dp, err := p.store.GetDue(ctx, postID)
	if err != nil {
		return err
	}
	if dp == nil {
		return service.ErrNotFound
	}

	switch dp.Post.Status {
	case models.PostStatusDraft, models.PostStatusScheduled:
	default:
		return fmt.Errorf("%w: %s", ErrNotPublishable, dp.Post.Status)
	}
	return p.publish(ctx, dp, dp.Post.Status)
}

func (p *Publisher) publish(ctx context.Context, dp *models.DuePost, from models.PostStatus) error {
	post := dp.Post
	log := slog.With("post_id", post.ID, "account_id", post.AccountID)

	active, err := p.ent.IsActive(ctx, post.UserID)
	if err != nil {
		log.Warn("entitlement lookup failed, will retry", "error", err)
		return err
	}
	if !active {
		p.reject(ctx, post.ID, from, entitlementMessage)
		return service.ErrEntitlementInactive
	}

	media, err := p.media.ListByPostID(ctx, post.ID)
	if err != nil {
		return err
	}
	if err := validation.ValidatePost(post.Content, media); err != nil {
		p.reject(ctx, post.ID, from, err.Error())
		return err
	}

	claimed, err := p.lc.Claim(ctx, post.ID, from)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrClaimLost
	}

	// The platform call and its outcome are recorded even if ctx is
	// cancelled, otherwise the post would stay claimed.
	detached := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithTimeout(detached, p.opts.CallTimeout)
	defer cancel()

	externalID, err := p.adapter.Publish(callCtx, dp.Account, post.Content, media)
	if err != nil {
		log.Error("publish failed", "error", err)
		if _, ferr := p.lc.Fail(detached, post.ID, models.PostStatusPublishing, fmt.Sprintf("Error publishing scheduled post: %v", err)); ferr != nil {
			log.Error("recording publish failure", "error", ferr)
		}
		if errors.Is(err, service.ErrPublishAdapter) {
			return err
		}
		return fmt.Errorf("%w: %v", service.ErrPublishAdapter, err)
	}

	if err := p.lc.MarkPublished(detached, post.ID, externalID, p.now()); err != nil {
		log.Error("recording publish success", "external_id", externalID, "error", err)
		return err
	}

	log.Info("post published", "external_id", externalID)
	return nil
}

// reject fails a scheduled post before any platform call. Drafts published
// manually stay drafts.
func (p *Publisher) reject(ctx context.Context, postID int64, from models.PostStatus, message string) {
	if from != models.PostStatusScheduled {
		return
	}
	if _, err := p.lc.Fail(ctx, postID, from, message); err != nil {
		slog.Error("recording rejection", "post_id", postID, "error", err)
	}
}

// ReapStale fails posts whose publish claim is older than the claim timeout.
// The platform may or may not have received them, so they are not retried.
func (p *Publisher) ReapStale(ctx context.Context) (int, error) {
	ids, err := p.store.ListStale(ctx, p.now().Add(-p.opts.ClaimTimeout))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, id := range ids {
		ok, err := p.lc.Fail(ctx, id, models.PostStatusPublishing, staleMessage)
		if err != nil {
			slog.Error("failing stale post", "post_id", id, "error", err)
			continue
		}
		if ok {
			reaped++
			slog.Warn("stale publish claim failed", "post_id", id)
		}
	}
	return reaped, nil
}
