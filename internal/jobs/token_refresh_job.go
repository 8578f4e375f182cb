package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postqueue/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	refreshWindow  = 30 * time.Minute
	refreshWorkers = 10
)

type AccountLister interface {
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
}

type TokenRefresher interface {
	RefreshToken(ctx context.Context, account *models.SocialAccount) error
}

// TokenRefreshJob renews access tokens that are about to expire so scheduled
// posts do not fail on an expired token.
type TokenRefreshJob struct {
	sr AccountLister
	li TokenRefresher

	now func() time.Time
}

func NewTokenRefreshJob(sr AccountLister, li TokenRefresher) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:  sr,
		li:  li,
		now: time.Now,
	}
}

func (j *TokenRefreshJob) RefreshTokens(ctx context.Context) error {
	accounts, err := j.sr.ListExpiring(ctx, j.now().Add(refreshWindow))
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(refreshWorkers)
	for _, acc := range accounts {
		acc := acc
		g.Go(func() error {
			if err := j.li.RefreshToken(ctx, acc); err != nil {
				slog.Info("unable to refresh linkedin token", "account_id", acc.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
