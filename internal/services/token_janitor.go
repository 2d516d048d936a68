package services

import (
	"context"
	"time"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenJanitor deletes expired revocation rows on a fixed interval.
type TokenJanitor struct {
	log      *logger.Logger
	purger   TokenPurger
	interval time.Duration
}

func NewTokenJanitor(baseLog *logger.Logger, purger TokenPurger, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenJanitor{
		log:      baseLog.With("component", "TokenJanitor"),
		purger:   purger,
		interval: interval,
	}
}

// Run purges once immediately, then every interval until ctx is done.
func (j *TokenJanitor) Run(ctx context.Context) error {
	j.log.Info("Starting token janitor", "interval", j.interval.String())
	j.purgeOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.log.Info("Token janitor stopped")
			return nil
		case <-ticker.C:
			j.purgeOnce(ctx)
		}
	}
}

func (j *TokenJanitor) purgeOnce(ctx context.Context) {
	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.log.Warn("Purging invalidated tokens failed", "error", err)
		}
		return
	}
	if n > 0 {
		j.log.Info("Purged invalidated tokens", "count", n)
	}
}
