package job

import (
	"context"

	config "github.com/maheshrc27/postqueue/configs"
)

type Publisher interface {
	Tick(ctx context.Context) error
	ReapStale(ctx context.Context) (int, error)
}

type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

// RegisterAll schedules the publisher tick, the stale claim reaper, the daily
// subscription sweep and token refreshes.
func RegisterAll(s *Scheduler, cfg config.Publish, pub Publisher, subs SubscriptionExpirer, tokens *TokenRefreshJob) error {
	if err := s.Register(cfg.Interval, "publish", pub.Tick); err != nil {
		return err
	}

	err := s.Register("@every 5m", "reap-stale", func(ctx context.Context) error {
		_, err := pub.ReapStale(ctx)
		return err
	})
	if err != nil {
		return err
	}

	err = s.Register("@midnight", "expire-subscriptions", func(ctx context.Context) error {
		_, err := subs.ExpireLapsed(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return s.Register("@every 10m", "refresh-tokens", tokens.RefreshTokens)
}
